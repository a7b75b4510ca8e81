package analyze

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/caption"
)

// wireSegment is the collaborator's JSON segment shape. Timestamps are
// fractional seconds; for chunk transcription they are relative to the
// chunk, for timing optimization they are global.
type wireSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type"`
}

// wireClassification is the gap classification reply shape.
type wireClassification struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// extractJSONArray pulls a JSON array out of a free-form model reply.
// Models wrap JSON in prose or markdown fences despite instructions, so
// the outermost bracket pair is located and everything around it ignored.
func extractJSONArray(s string, v any) bool {
	s = stripFences(s)
	i := strings.Index(s, "[")
	j := strings.LastIndex(s, "]")
	if i < 0 || j <= i {
		return false
	}
	return json.Unmarshal([]byte(s[i:j+1]), v) == nil
}

// extractJSONObject pulls a JSON object out of a free-form model reply.
func extractJSONObject(s string, v any) bool {
	s = stripFences(s)
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i < 0 || j <= i {
		return false
	}
	return json.Unmarshal([]byte(s[i:j+1]), v) == nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// stripMarkers removes caption decoration a model emits despite being
// asked for plain text. Segment text stays content-neutral; the renderer
// re-applies decoration consistently.
func stripMarkers(text string, t caption.ContentType) string {
	text = strings.TrimSpace(text)
	switch t {
	case caption.Music:
		if strings.HasPrefix(text, "[♪") && strings.HasSuffix(text, "♪]") {
			text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "[♪"), "♪]"))
		}
	case caption.Sound:
		if strings.HasPrefix(text, "[Sound:") && strings.HasSuffix(text, "]") {
			text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "[Sound:"), "]"))
		}
	case caption.Silence:
		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "["), "]"))
		}
	}
	return text
}

// chunkSegments converts a chunk transcription reply into segments on the
// global timeline. Local timestamps are clamped to the chunk window, not
// discarded, so hallucinated out-of-range timings keep their content near
// the chunk edge; only intervals emptied by clamping are dropped.
// Overlaps within the chunk are preserved as-is; cross-chunk dedup
// happens at merge time.
func chunkSegments(wire []wireSegment, chunk audio.Chunk) []caption.Segment {
	segments := make([]caption.Segment, 0, len(wire))
	for _, w := range wire {
		start := secondsToDuration(w.Start)
		end := secondsToDuration(w.End)
		if start < 0 {
			start = 0
		}
		if end > chunk.Duration() {
			end = chunk.Duration()
		}
		if end <= start {
			continue
		}
		ctype := caption.ParseContentType(w.Type)
		segments = append(segments, caption.Segment{
			Start:  chunk.Start + start,
			End:    chunk.Start + end,
			Text:   stripMarkers(w.Text, ctype),
			Type:   ctype,
			Origin: caption.Source{Kind: caption.ChunkTranscription, Index: chunk.Index},
		})
	}
	return segments
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
