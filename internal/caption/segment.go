// Package caption defines the segment model and the timeline that the
// caption pipeline assembles: one ordered, non-overlapping, gap-free
// sequence of classified intervals per job.
package caption

import (
	"fmt"
	"time"

	"github.com/duboc/go-captions/internal/format"
)

// ContentType classifies what a segment captures.
type ContentType int

const (
	// Speech is spoken dialogue.
	Speech ContentType = iota
	// Music is background music or score.
	Music
	// Sound is a discrete sound effect or ambient noise.
	Sound
	// Silence is a contextually meaningful quiet interval.
	Silence
)

// String returns the wire name used by the collaborator protocol.
func (t ContentType) String() string {
	switch t {
	case Speech:
		return "speech"
	case Music:
		return "music"
	case Sound:
		return "sound"
	case Silence:
		return "silence"
	default:
		return fmt.Sprintf("ContentType(%d)", int(t))
	}
}

// ParseContentType maps a collaborator type string to a ContentType.
// Unknown strings default to Speech, matching the collaborator protocol's
// default for untagged content.
func ParseContentType(s string) ContentType {
	switch s {
	case "music":
		return Music
	case "sound":
		return Sound
	case "silence":
		return Silence
	default:
		return Speech
	}
}

// SourceKind records which pipeline pass produced a segment.
type SourceKind int

const (
	// ChunkTranscription marks segments produced by the per-chunk pass.
	ChunkTranscription SourceKind = iota
	// GapFill marks segments produced by the gap analysis pass.
	GapFill
)

// String returns a short label for logging.
func (k SourceKind) String() string {
	switch k {
	case ChunkTranscription:
		return "chunk"
	case GapFill:
		return "gap"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source is a segment's provenance: the pass that created it and the
// chunk or gap index within that pass. Used for diagnostics and token
// accounting only, never for ordering.
type Source struct {
	Kind  SourceKind
	Index int
}

// Segment is one timed, classified caption interval.
// Text is content-neutral: type-specific decoration (music markers, sound
// labels) is applied by the renderer, not stored here.
type Segment struct {
	Start  time.Duration
	End    time.Duration
	Text   string
	Type   ContentType
	Origin Source
}

// Duration returns the length of the segment.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// String returns a human-readable representation for logging.
func (s Segment) String() string {
	return fmt.Sprintf("%s %s %q", s.Type, format.Range(s.Start, s.End), s.Text)
}
