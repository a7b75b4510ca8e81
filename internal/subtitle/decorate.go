package subtitle

import (
	"strings"

	"github.com/duboc/go-captions/internal/caption"
)

// Decoration markers per content type. Viewers rely on these visual
// conventions to tell non-speech cues apart from dialogue.
const (
	musicOpen  = "[♪ "
	musicClose = " ♪]"
	soundOpen  = "[Sound: "
)

// decorate applies type-specific decoration to a segment's text.
// styled enables inline markup (italic music, bold sound effects) for
// formats that support it. Text that already carries its decoration is
// left as-is so collaborator leakage is never double-wrapped.
func decorate(s caption.Segment, styled bool) string {
	text := s.Text
	switch s.Type {
	case caption.Music:
		if !strings.HasPrefix(text, "[♪") {
			text = musicOpen + text + musicClose
		}
		if styled {
			text = "<i>" + text + "</i>"
		}
	case caption.Sound:
		if !strings.HasPrefix(text, soundOpen) {
			text = soundOpen + text + "]"
		}
		if styled {
			text = "<b>" + text + "</b>"
		}
	case caption.Silence:
		if !strings.HasPrefix(text, "[") {
			text = "[" + text + "]"
		}
	}
	return text
}

// undecorate reverses decorate, recovering the content type and the
// neutral text from a rendered cue. Used by Parse for the formats'
// lossless round trip.
func undecorate(text string) (caption.ContentType, string) {
	plain := strings.TrimSuffix(strings.TrimPrefix(text, "<i>"), "</i>")
	plain = strings.TrimSuffix(strings.TrimPrefix(plain, "<b>"), "</b>")

	switch {
	case strings.HasPrefix(plain, "[♪") && strings.HasSuffix(plain, "♪]"):
		inner := strings.TrimSuffix(strings.TrimPrefix(plain, "[♪"), "♪]")
		return caption.Music, strings.TrimSpace(inner)
	case strings.HasPrefix(plain, soundOpen) && strings.HasSuffix(plain, "]"):
		inner := strings.TrimSuffix(strings.TrimPrefix(plain, soundOpen), "]")
		return caption.Sound, inner
	case strings.HasPrefix(plain, "[") && strings.HasSuffix(plain, "]"):
		return caption.Silence, strings.TrimSuffix(strings.TrimPrefix(plain, "["), "]")
	default:
		return caption.Speech, plain
	}
}
