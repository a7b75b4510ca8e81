package subtitle

import (
	"fmt"
	"strings"

	"github.com/duboc/go-captions/internal/caption"
)

// Parse reads a subtitle document back into segments, reversing Render.
// Content types are recovered from the decoration markers; block numbers
// and cue identifiers are validation-only and not retained.
func Parse(doc string, f Format) ([]caption.Segment, error) {
	switch f {
	case SRT:
		return parseSRT(doc)
	case VTT:
		return parseVTT(doc)
	default:
		return nil, fmt.Errorf("%v: %w", f, ErrUnsupportedFormat)
	}
}

func parseSRT(doc string) ([]caption.Segment, error) {
	var segments []caption.Segment
	for _, block := range splitBlocks(doc) {
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			return nil, fmt.Errorf("SRT block %q too short: %w", block, ErrInvalidDocument)
		}
		// lines[0] is the sequence number.
		seg, err := parseCue(lines[1], lines[2:])
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseVTT(doc string) ([]caption.Segment, error) {
	blocks := splitBlocks(doc)
	if len(blocks) == 0 || !strings.HasPrefix(blocks[0], "WEBVTT") {
		return nil, fmt.Errorf("missing WEBVTT header: %w", ErrInvalidDocument)
	}

	var segments []caption.Segment
	for _, block := range blocks[1:] {
		lines := strings.Split(block, "\n")
		// Cue identifier line is optional per the WebVTT grammar.
		if !strings.Contains(lines[0], "-->") {
			lines = lines[1:]
		}
		if len(lines) < 2 {
			return nil, fmt.Errorf("VTT cue %q too short: %w", block, ErrInvalidDocument)
		}
		seg, err := parseCue(lines[0], lines[1:])
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// parseCue parses a "start --> end" timing line plus text lines into a
// segment, undoing the render-time decoration.
func parseCue(timing string, textLines []string) (caption.Segment, error) {
	parts := strings.Split(timing, " --> ")
	if len(parts) != 2 {
		return caption.Segment{}, fmt.Errorf("timing line %q: %w", timing, ErrInvalidDocument)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return caption.Segment{}, err
	}
	end, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return caption.Segment{}, err
	}

	ctype, text := undecorate(strings.Join(textLines, "\n"))
	return caption.Segment{Start: start, End: end, Text: text, Type: ctype}, nil
}

// splitBlocks splits a document into blank-line separated blocks,
// tolerating CRLF line endings and trailing whitespace.
func splitBlocks(doc string) []string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	var blocks []string
	for _, block := range strings.Split(doc, "\n\n") {
		block = strings.Trim(block, "\n")
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}
