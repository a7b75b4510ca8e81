// Package analyze is the client for the audio understanding service: it
// sends audio windows with instructional prompts, tolerantly parses the
// structured replies into caption segments, and accounts token usage per
// call. Responses are never trusted to be well-formed; every parse
// produces an explicit verdict that downstream logic branches on.
package analyze

import (
	"github.com/duboc/go-captions/internal/caption"
)

// Verdict classifies what a collaborator response turned out to be.
// Downstream logic branches on this explicit variant instead of assuming
// response shape; Unparsable and Empty are recoverable states, not errors.
type Verdict int

const (
	// Parsed means the response yielded usable segments.
	Parsed Verdict = iota
	// Empty means the response was valid but contained no segments.
	Empty
	// Unparsable means the response could not be interpreted. The caller
	// treats the interval as uncovered; the gap pass backfills it.
	Unparsable
)

// String returns a short label for logging.
func (v Verdict) String() string {
	switch v {
	case Parsed:
		return "parsed"
	case Empty:
		return "empty"
	case Unparsable:
		return "unparsable"
	default:
		return "unknown"
	}
}

// TokenUsage is the token accounting for one collaborator call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// Add accumulates another call's usage into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Total returns the combined token count.
func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// UsageReport aggregates token usage by pipeline phase. The surrounding
// job-status layer surfaces it; the engine only accumulates.
type UsageReport struct {
	Transcription TokenUsage
	GapAnalysis   TokenUsage
	Optimization  TokenUsage
}

// Total returns the combined usage across all phases.
func (r UsageReport) Total() TokenUsage {
	var t TokenUsage
	t.Add(r.Transcription)
	t.Add(r.GapAnalysis)
	t.Add(r.Optimization)
	return t
}

// ChunkResult is the outcome of transcribing one chunk.
type ChunkResult struct {
	Verdict  Verdict
	Segments []caption.Segment // Global coordinates; set when Verdict is Parsed.
	Usage    TokenUsage
}

// GapResult is the outcome of classifying one gap.
type GapResult struct {
	Verdict Verdict
	Segment caption.Segment // Spans the full gap; set when Verdict is Parsed.
	Usage   TokenUsage
}

// OptimizeResult is the outcome of the holistic timing pass.
type OptimizeResult struct {
	Verdict  Verdict
	Segments []caption.Segment // The revised timeline; set when Verdict is Parsed.
	Usage    TokenUsage
}
