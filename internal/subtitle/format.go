// Package subtitle serializes a finalized caption timeline into subtitle
// documents (SRT and WebVTT) and parses those documents back into
// segments. Rendering is a pure function of its input: the same segments
// and format always produce byte-identical output.
package subtitle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat indicates an unknown subtitle format name.
var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// ErrInvalidDocument indicates a subtitle document that does not match
// its format's grammar.
var ErrInvalidDocument = errors.New("invalid subtitle document")

// Format identifies a subtitle output format.
type Format int

const (
	// SRT is SubRip: numbered blocks, comma millisecond separator, no
	// inline styling.
	SRT Format = iota
	// VTT is WebVTT: header, cue identifiers, dot millisecond separator,
	// inline styling supported.
	VTT
)

// String returns the format's canonical lowercase name.
func (f Format) String() string {
	switch f {
	case SRT:
		return "srt"
	case VTT:
		return "vtt"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat parses a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "srt":
		return SRT, nil
	case "vtt":
		return VTT, nil
	default:
		return 0, fmt.Errorf("%q (supported: %s): %w", s, strings.Join(Names(), ", "), ErrUnsupportedFormat)
	}
}

// Names lists the supported format names.
func Names() []string {
	return []string{"srt", "vtt"}
}
