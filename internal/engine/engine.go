// Package engine assembles captions for one media source: it plans
// analysis windows, reconciles the per-window results into a single
// consistent timeline, backfills unexplained silence, and runs a
// best-effort holistic timing pass. The timeline is owned by one job and
// mutated only between the parallel phases, under a single writer.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duboc/go-captions/internal/analyze"
	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/caption"
)

// Defaults and limits.
const (
	// DefaultGapThreshold is the minimum uncovered interval that triggers
	// gap analysis. Anything shorter is an ordinary inter-caption pause.
	DefaultGapThreshold = 1 * time.Second

	// DefaultMaxParallel is the default number of concurrent collaborator
	// calls per pass.
	DefaultMaxParallel = 4

	// MaxRecommendedParallel is the upper limit for concurrent calls.
	// Higher values tend to trigger rate limiting.
	MaxRecommendedParallel = 10

	// silenceFallbackText labels gaps the collaborator could not explain.
	silenceFallbackText = "Silence"
)

// Engine runs the caption assembly pipeline. It is stateless across jobs:
// each Run builds and discards its own timeline. The analyzer and
// extractor may be shared across concurrent jobs.
type Engine struct {
	analyzer     analyze.Analyzer
	extractor    audio.Extractor
	chunkSize    time.Duration
	gapThreshold time.Duration
	maxParallel  int
	allowPartial bool
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets the analysis window length.
// Validation happens at Run time via chunk planning, so an invalid size
// becomes a configuration error before any collaborator call.
func WithChunkSize(d time.Duration) Option {
	return func(e *Engine) {
		e.chunkSize = d
	}
}

// WithGapThreshold sets the minimum uncovered interval that triggers gap
// analysis.
func WithGapThreshold(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.gapThreshold = d
		}
	}
}

// WithMaxParallel sets the number of concurrent collaborator calls,
// clamped to [1, MaxRecommendedParallel].
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		e.maxParallel = min(max(n, 1), MaxRecommendedParallel)
	}
}

// WithPartialResults makes a canceled job return the best-effort timeline
// assembled from results received before cancellation, alongside the
// context error. Without it a canceled job discards everything.
func WithPartialResults(allow bool) Option {
	return func(e *Engine) {
		e.allowPartial = allow
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine.
func New(analyzer analyze.Analyzer, extractor audio.Extractor, opts ...Option) (*Engine, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	e := &Engine{
		analyzer:     analyzer,
		extractor:    extractor,
		chunkSize:    audio.DefaultChunkSize,
		gapThreshold: DefaultGapThreshold,
		maxParallel:  DefaultMaxParallel,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Result is the outcome of one captioning job.
type Result struct {
	JobID    uuid.UUID
	Duration time.Duration
	Segments []caption.Segment
	Usage    analyze.UsageReport
}

// Run assembles the caption timeline for the given media source.
//
// Only configuration problems (bad chunk size, unreadable source) abort
// the job; collaborator failures degrade to less complete captions.
// On cancellation Run returns the context error; if partial results were
// requested the returned Result carries the best-effort timeline built
// from whatever arrived first, otherwise the Result is nil.
func (e *Engine) Run(ctx context.Context, source string) (*Result, error) {
	jobID := uuid.New()
	log := e.logger.With(zap.String("job_id", jobID.String()), zap.String("source", source))

	total, err := e.extractor.ProbeDuration(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", source, err)
	}

	// Planning validates configuration before any collaborator call.
	chunks, err := audio.Plan(total, e.chunkSize)
	if err != nil {
		return nil, err
	}
	tl, err := caption.NewTimeline(total)
	if err != nil {
		return nil, err
	}

	log.Info("job started",
		zap.Duration("duration", total),
		zap.Int("chunks", len(chunks)),
		zap.Duration("chunk_size", e.chunkSize))

	result := &Result{JobID: jobID, Duration: total}

	// Chunk pass: parallel transcription, then a single-writer merge.
	// Order is restored at merge time, never assumed from completion order.
	batches, usage, err := e.chunkPass(ctx, source, chunks, log)
	result.Usage.Transcription = usage
	if err != nil {
		if !e.allowPartial {
			return nil, err
		}
		for _, batch := range batches {
			tl.Merge(batch)
		}
		result.Segments = tl.Segments()
		log.Warn("job canceled, returning partial timeline",
			zap.Int("segments", tl.Len()))
		return result, err
	}
	for _, batch := range batches {
		tl.Merge(batch)
	}
	log.Info("chunk pass complete", zap.Int("segments", tl.Len()))

	// Gap pass: every uncovered interval above the threshold gets exactly
	// one segment, from classification or the silence fallback.
	usage, err = e.gapPass(ctx, source, tl, log)
	result.Usage.GapAnalysis = usage
	if err != nil {
		if !e.allowPartial {
			return nil, err
		}
		result.Segments = tl.Segments()
		return result, err
	}

	// Timing pass: best-effort refinement, never required for correctness.
	result.Usage.Optimization = e.optimize(ctx, tl, log)

	result.Segments = tl.Segments()
	log.Info("job complete",
		zap.Int("segments", len(result.Segments)),
		zap.Int("prompt_tokens", result.Usage.Total().PromptTokens),
		zap.Int("completion_tokens", result.Usage.Total().CompletionTokens))
	return result, nil
}
