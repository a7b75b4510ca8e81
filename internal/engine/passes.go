package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/duboc/go-captions/internal/analyze"
	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/caption"
	"github.com/duboc/go-captions/internal/format"
)

// chunkPass extracts and transcribes every chunk with bounded parallelism.
// Results come back indexed by chunk so merge order never depends on
// completion order. A failed chunk contributes no segments; only
// cancellation aborts the pass.
func (e *Engine) chunkPass(ctx context.Context, source string, chunks []audio.Chunk, log *zap.Logger) ([][]caption.Segment, analyze.TokenUsage, error) {
	batches := make([][]caption.Segment, len(chunks))

	var mu sync.Mutex
	var usage analyze.TokenUsage

	sem := make(chan struct{}, e.maxParallel)
	g, gctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			payload, err := e.extractor.Extract(gctx, source, chunk.Start, chunk.End)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("chunk extraction failed",
					zap.Int("chunk", chunk.Index),
					zap.String("range", format.Range(chunk.Start, chunk.End)),
					zap.Error(err))
				return nil
			}

			res, err := e.analyzer.TranscribeChunk(gctx, payload, chunk)
			mu.Lock()
			usage.Add(res.Usage)
			mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("chunk transcription failed",
					zap.Int("chunk", chunk.Index),
					zap.Error(err))
				return nil
			}

			switch res.Verdict {
			case analyze.Parsed:
				batches[i] = res.Segments
				log.Debug("chunk transcribed",
					zap.Int("chunk", chunk.Index),
					zap.Int("segments", len(res.Segments)))
			default:
				log.Warn("chunk yielded no usable segments",
					zap.Int("chunk", chunk.Index),
					zap.String("verdict", res.Verdict.String()))
			}
			return nil
		})
	}

	err := g.Wait()
	return batches, usage, err
}

// gapPass classifies every gap above the threshold with bounded
// parallelism and inserts the results serially afterwards. Each gap ends
// up represented: classification failure or an uninterpretable response
// falls back to a synthesized silence segment.
func (e *Engine) gapPass(ctx context.Context, source string, tl *caption.Timeline, log *zap.Logger) (analyze.TokenUsage, error) {
	gaps := tl.Gaps(e.gapThreshold)
	if len(gaps) == 0 {
		return analyze.TokenUsage{}, nil
	}
	log.Info("gap pass started", zap.Int("gaps", len(gaps)))

	fills := make([]caption.Segment, len(gaps))

	var mu sync.Mutex
	var usage analyze.TokenUsage

	sem := make(chan struct{}, e.maxParallel)
	g, gctx := errgroup.WithContext(ctx)

	for i, gap := range gaps {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			fill, u, err := e.classifyGap(gctx, source, gap, i, log)
			mu.Lock()
			usage.Add(u)
			mu.Unlock()
			if err != nil {
				return err
			}
			fills[i] = fill
			return nil
		})
	}

	err := g.Wait()

	// Insertion is serialized after the parallel phase; the timeline is
	// never touched concurrently. On cancellation only completed fills
	// make it in.
	for _, fill := range fills {
		if fill.End > fill.Start {
			tl.Insert(fill)
		}
	}
	return usage, err
}

// classifyGap produces the segment for one gap. Any failure short of
// cancellation degrades to the silence fallback.
func (e *Engine) classifyGap(ctx context.Context, source string, gap caption.Gap, index int, log *zap.Logger) (caption.Segment, analyze.TokenUsage, error) {
	fallback := caption.Segment{
		Start:  gap.Start,
		End:    gap.End,
		Text:   silenceFallbackText,
		Type:   caption.Silence,
		Origin: caption.Source{Kind: caption.GapFill, Index: index},
	}

	payload, err := e.extractor.Extract(ctx, source, gap.Start, gap.End)
	if err != nil {
		if ctx.Err() != nil {
			return caption.Segment{}, analyze.TokenUsage{}, ctx.Err()
		}
		log.Warn("gap extraction failed, assuming silence",
			zap.String("range", format.Range(gap.Start, gap.End)),
			zap.Error(err))
		return fallback, analyze.TokenUsage{}, nil
	}

	res, err := e.analyzer.ClassifyGap(ctx, payload, gap, index)
	if err != nil {
		if ctx.Err() != nil {
			return caption.Segment{}, res.Usage, ctx.Err()
		}
		log.Warn("gap classification failed, assuming silence",
			zap.String("range", format.Range(gap.Start, gap.End)),
			zap.Error(err))
		return fallback, res.Usage, nil
	}
	if res.Verdict != analyze.Parsed {
		log.Warn("gap classification unusable, assuming silence",
			zap.String("range", format.Range(gap.Start, gap.End)),
			zap.String("verdict", res.Verdict.String()))
		return fallback, res.Usage, nil
	}

	log.Debug("gap classified",
		zap.String("range", format.Range(gap.Start, gap.End)),
		zap.String("type", res.Segment.Type.String()))
	return res.Segment, res.Usage, nil
}

// optimize runs the consolidated timing pass. The refined timeline is
// adopted only when it parses and still satisfies every timeline
// invariant; otherwise the original timing stands.
func (e *Engine) optimize(ctx context.Context, tl *caption.Timeline, log *zap.Logger) analyze.TokenUsage {
	segments := tl.Segments()
	if len(segments) == 0 {
		return analyze.TokenUsage{}
	}

	res, err := e.analyzer.OptimizeTiming(ctx, segments)
	if err != nil {
		log.Warn("timing optimization failed, keeping original timing", zap.Error(err))
		return res.Usage
	}
	if res.Verdict != analyze.Parsed {
		log.Warn("timing optimization unusable, keeping original timing",
			zap.String("verdict", res.Verdict.String()))
		return res.Usage
	}
	if err := tl.Replace(res.Segments); err != nil {
		log.Warn("optimized timeline rejected, keeping original timing", zap.Error(err))
		return res.Usage
	}

	log.Info("timing optimization applied", zap.Int("segments", len(res.Segments)))
	return res.Usage
}
