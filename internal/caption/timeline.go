package caption

import (
	"fmt"
	"sort"
	"time"

	"github.com/duboc/go-captions/internal/format"
)

// Gap is an uncovered interval between segments that exceeds the detection
// threshold. Gaps are derived, never stored: each one is handed to the gap
// analysis pass and produces exactly one segment.
type Gap struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the gap.
func (g Gap) Duration() time.Duration {
	return g.End - g.Start
}

// String returns a human-readable representation for logging.
func (g Gap) String() string {
	return format.Range(g.Start, g.End)
}

// Timeline is the ordered segment sequence for one captioning job.
// It is owned by a single job and mutated only through Merge, Insert and
// Replace; callers that need the contents take a snapshot via Segments.
//
// Invariant after every mutation: segments are sorted ascending by Start,
// pairwise non-overlapping, and each interval lies within [0, Total].
type Timeline struct {
	total    time.Duration
	segments []Segment
}

// NewTimeline creates an empty timeline covering [0, total].
func NewTimeline(total time.Duration) (*Timeline, error) {
	if total <= 0 {
		return nil, fmt.Errorf("total duration %v: %w", total, ErrInvalidDuration)
	}
	return &Timeline{total: total}, nil
}

// Total returns the duration the timeline covers.
func (t *Timeline) Total() time.Duration {
	return t.total
}

// Len returns the number of segments currently on the timeline.
func (t *Timeline) Len() int {
	return len(t.segments)
}

// Segments returns a copy of the current segment sequence.
func (t *Timeline) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Merge adds a batch of segments and re-establishes the timeline invariant.
// Segments are clamped to [0, Total] and sorted by start time. Where two
// segments overlap, the earlier one's end is truncated to the later one's
// start: chunks are processed in temporal order, so later data takes
// precedence for the disputed interval. Segments emptied by clamping or
// truncation are dropped.
func (t *Timeline) Merge(batch []Segment) {
	merged := make([]Segment, 0, len(t.segments)+len(batch))
	merged = append(merged, t.segments...)
	for _, s := range batch {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > t.total {
			s.End = t.total
		}
		if s.End <= s.Start {
			continue
		}
		merged = append(merged, s)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})

	out := merged[:0]
	for _, s := range merged {
		// Truncate earlier segments that run into this one. Truncation can
		// empty a segment entirely, exposing the one before it to the same
		// check, so walk back until no overlap remains.
		for len(out) > 0 {
			last := &out[len(out)-1]
			if last.End <= s.Start {
				break
			}
			last.End = s.Start
			if last.End > last.Start {
				break
			}
			out = out[:len(out)-1]
		}
		out = append(out, s)
	}
	t.segments = out
}

// Gaps returns every uncovered interval longer than threshold, including
// the head against 0 and the tail against Total. Gaps are returned in
// start order and are disjoint by construction.
func (t *Timeline) Gaps(threshold time.Duration) []Gap {
	var gaps []Gap
	cursor := time.Duration(0)
	for _, s := range t.segments {
		if s.Start-cursor > threshold {
			gaps = append(gaps, Gap{Start: cursor, End: s.Start})
		}
		if s.End > cursor {
			cursor = s.End
		}
	}
	if t.total-cursor > threshold {
		gaps = append(gaps, Gap{Start: cursor, End: t.total})
	}
	return gaps
}

// Insert splices one segment into its sorted position. It is intended for
// gap-fill segments, whose intervals are uncovered by construction; it does
// not truncate neighbors.
func (t *Timeline) Insert(s Segment) {
	i := sort.Search(len(t.segments), func(i int) bool {
		return t.segments[i].Start >= s.Start
	})
	t.segments = append(t.segments, Segment{})
	copy(t.segments[i+1:], t.segments[i:])
	t.segments[i] = s
}

// Replace swaps the entire segment sequence, validating the invariant
// first. On validation failure the timeline is left unchanged and the
// error is returned; the timing optimizer relies on this to fall back to
// its input when the collaborator produces an inconsistent revision.
func (t *Timeline) Replace(segments []Segment) error {
	if err := Validate(segments, t.total); err != nil {
		return err
	}
	t.segments = make([]Segment, len(segments))
	copy(t.segments, segments)
	return nil
}

// Validate checks that segments form a valid timeline over [0, total]:
// sorted ascending by start, pairwise non-overlapping, every interval
// non-empty and within bounds.
func Validate(segments []Segment, total time.Duration) error {
	for i, s := range segments {
		if s.End <= s.Start {
			return fmt.Errorf("segment %d has empty interval %s: %w",
				i, format.Range(s.Start, s.End), ErrInvariant)
		}
		if s.Start < 0 || s.End > total {
			return fmt.Errorf("segment %d interval %s outside [0, %s]: %w",
				i, format.Range(s.Start, s.End), format.Seconds(total), ErrInvariant)
		}
		if i > 0 && segments[i-1].End > s.Start {
			return fmt.Errorf("segment %d overlaps previous (%s after %s): %w",
				i, format.Range(s.Start, s.End),
				format.Range(segments[i-1].Start, segments[i-1].End), ErrInvariant)
		}
	}
	return nil
}
