package subtitle

import (
	"fmt"
	"strings"

	"github.com/duboc/go-captions/internal/caption"
)

// Render serializes segments into a subtitle document in the given format.
// Segments must already satisfy the timeline invariant (sorted,
// non-overlapping); Render does not reorder or repair its input.
func Render(segments []caption.Segment, f Format) (string, error) {
	switch f {
	case SRT:
		return renderSRT(segments), nil
	case VTT:
		return renderVTT(segments), nil
	default:
		return "", fmt.Errorf("%v: %w", f, ErrUnsupportedFormat)
	}
}

// renderSRT produces sequential numbered blocks with comma-separated
// millisecond timestamps. SRT has no inline styling, so decoration is
// markers only.
func renderSRT(segments []caption.Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n",
			i+1,
			timestamp(s.Start, ','),
			timestamp(s.End, ','),
			decorate(s, false))
	}
	return b.String()
}

// renderVTT produces a WEBVTT document with cue-N identifiers,
// dot-separated millisecond timestamps, and inline styling.
func renderVTT(segments []caption.Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for i, s := range segments {
		fmt.Fprintf(&b, "\ncue-%d\n%s --> %s\n%s\n",
			i+1,
			timestamp(s.Start, '.'),
			timestamp(s.End, '.'),
			decorate(s, true))
	}
	return b.String()
}
