// Package audio plans the analysis windows of a captioning job and
// extracts their audio payloads from the source media via ffmpeg.
package audio

import (
	"fmt"
	"time"

	"github.com/duboc/go-captions/internal/format"
)

// DefaultChunkSize is the default analysis window length.
// 30 seconds keeps each collaborator request small enough for accurate
// in-window timestamps while bounding the number of requests per job.
const DefaultChunkSize = 30 * time.Second

// Chunk is one fixed-size analysis window of the source audio, identified
// by its index and global offsets. Chunks are planned once and immutable;
// their audio payloads are extracted on demand and held only for the
// duration of the collaborator call.
type Chunk struct {
	Index int           // Zero-based index for ordering and diagnostics.
	Start time.Duration // Global start offset in the source audio.
	End   time.Duration // Global end offset in the source audio.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.End - c.Start
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s", c.Index, format.Range(c.Start, c.End))
}

// Plan splits [0, total] into abutting chunks of the given size, the final
// chunk truncated to whatever remains. The union of the returned chunks
// covers [0, total] exactly, with no gaps and no overlap.
//
// Returns ErrInvalidChunking if total or size is non-positive; invalid
// input is never silently clamped.
func Plan(total, size time.Duration) ([]Chunk, error) {
	if total <= 0 {
		return nil, fmt.Errorf("total duration %v: %w", total, ErrInvalidChunking)
	}
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %v: %w", size, ErrInvalidChunking)
	}

	var chunks []Chunk
	for start := time.Duration(0); start < total; start += size {
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: start,
			End:   min(start+size, total),
		})
	}
	return chunks, nil
}
