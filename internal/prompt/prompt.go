// Package prompt holds the instructional prompts sent to the audio
// understanding service, one validated template per collaborator call
// shape. Templates are rendered with typed data so call sites cannot
// drift from the wire protocol the parser expects.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrUnknown indicates an invalid prompt name was specified.
var ErrUnknown = errors.New("unknown prompt")

// Prompt name constants.
const (
	Transcribe = "transcribe"
	Classify   = "classify"
	Optimize   = "optimize"
)

// Name represents a validated prompt name.
// Zero value is invalid and must not be used with Render().
type Name struct {
	name string
}

// Pre-parsed prompt names for use in code.
var (
	TranscribeName = Name{name: Transcribe}
	ClassifyName   = Name{name: Classify}
	OptimizeName   = Name{name: Optimize}
)

// ParseName validates and parses a prompt name string.
func ParseName(s string) (Name, error) {
	if _, ok := templates[s]; !ok {
		return Name{}, fmt.Errorf("prompt %q: %w", s, ErrUnknown)
	}
	return Name{name: s}, nil
}

// String returns the prompt name. Empty for the zero value.
func (n Name) String() string {
	return n.name
}

// IsZero reports whether this is the zero value.
func (n Name) IsZero() bool {
	return n.name == ""
}

// Render executes the named template with the given data.
// Panics if called on a zero Name; use the pre-parsed names.
func (n Name) Render(data any) (string, error) {
	tmpl, ok := templates[n.name]
	if !ok {
		panic("prompt: Render called on zero Name")
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", n.name, err)
	}
	return b.String(), nil
}

// TranscribeData parameterizes the chunk transcription prompt.
// Times are pre-formatted in fractional seconds ("42.50").
type TranscribeData struct {
	ChunkStart    string // Global start of the chunk in the source audio.
	ChunkDuration string // Length of the chunk.
}

// ClassifyData parameterizes the gap classification prompt.
type ClassifyData struct {
	Start string // Global start of the gap.
	End   string // Global end of the gap.
}

// OptimizeData parameterizes the timing optimization prompt.
type OptimizeData struct {
	SegmentsJSON string // The full segment list as a JSON array.
}

var templates = map[string]*template.Template{
	Transcribe: template.Must(template.New(Transcribe).Parse(transcribeText)),
	Classify:   template.Must(template.New(Classify).Parse(classifyText)),
	Optimize:   template.Must(template.New(Optimize).Parse(optimizeText)),
}

const transcribeText = `Transcribe this audio for captioning TV shows, videocasts, or webnovels, with accurate timestamps.
This audio chunk starts at {{.ChunkStart}} seconds in the original video and is {{.ChunkDuration}} seconds long.

IMPORTANT: In addition to speech, also identify:
- Music: describe the style or mood, e.g. "Upbeat jazz music"
- Sound effects: describe important sounds, e.g. "door slamming"
- Ambient noise: note significant background sounds, e.g. "crowd chattering"
- Silence: if silence is contextually important, describe it, e.g. "Tense silence"

Ensure each caption segment is self-contained and meaningful to viewers. Split long sentences at natural breaks.

Return the result as a JSON array where each element contains:
1. "text": the transcribed speech, or a plain description for non-speech content (no brackets or markers)
2. "start": start time in seconds, relative to the start of this chunk
3. "end": end time in seconds, relative to the start of this chunk
4. "type": "speech" for spoken dialogue, "music" for music, "sound" for sound effects, "silence" for meaningful silence

Format:
[
    {"text": "This is the first line", "start": 0.0, "end": 2.5, "type": "speech"},
    {"text": "Upbeat music", "start": 2.5, "end": 5.0, "type": "music"},
    {"text": "door slamming", "start": 5.0, "end": 5.5, "type": "sound"},
    {"text": "Tense silence", "start": 5.5, "end": 8.0, "type": "silence"}
]

For audio content you cannot understand clearly, use "[unintelligible]" as the text.
Make sure the timestamps are accurate and reflect the actual timing of speech and sounds.`

const classifyText = `Analyze this audio gap between {{.Start}}s and {{.End}}s.

Determine if it contains:
1. Music or background score
2. Sound effects
3. Ambient noise
4. Meaningful silence

Do not transcribe speech; this interval was already checked for dialogue.

Return only a JSON object with:
- "type": one of "music", "sound", "silence"
- "text": a plain description of what you hear (no brackets or markers)

Format:
{"type": "music", "text": "Suspenseful music"}
{"type": "sound", "text": "footsteps approaching"}
{"type": "silence", "text": "Tense silence"}

If there is nothing meaningful, simply return {"type": "silence", "text": "Silence"}`

const optimizeText = `I have a set of caption segments for a video that need timing optimization.
The goal is to make the captions more readable and properly timed for viewers.

Here are the current segments:
{{.SegmentsJSON}}

Analyze these segments and optimize the timing based on these rules:

1. Speech segments should align with natural speech patterns and sentence breaks
2. Music and sound segments should have appropriate durations (not too short, not stretched to fill long quiet stretches)
3. Combine very short segments that are parts of the same sentence, concatenating their text in order
4. Ensure gaps between captions are appropriate for readability
5. Maintain original ordering but adjust start/end times; segments must never overlap
6. Do not change the content of the text, only the timing and grouping

Return the optimized segments as a JSON array with the same structure, preserving all fields.`
