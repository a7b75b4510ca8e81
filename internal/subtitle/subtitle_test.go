package subtitle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duboc/go-captions/internal/caption"
	"github.com/duboc/go-captions/internal/subtitle"
)

func sec(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func sampleSegments() []caption.Segment {
	return []caption.Segment{
		{Start: 0, End: sec(2.5), Text: "This is the first line", Type: caption.Speech},
		{Start: sec(2.5), End: sec(5), Text: "Upbeat jazz music", Type: caption.Music},
		{Start: sec(5), End: sec(5.5), Text: "door slamming", Type: caption.Sound},
		{Start: sec(5.5), End: sec(8), Text: "Tense silence", Type: caption.Silence},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"srt", "SRT", "vtt", "VTT"} {
		_, err := subtitle.ParseFormat(name)
		assert.NoError(t, err, name)
	}
	_, err := subtitle.ParseFormat("ass")
	require.ErrorIs(t, err, subtitle.ErrUnsupportedFormat)
}

func TestRenderSRT(t *testing.T) {
	got, err := subtitle.Render(sampleSegments(), subtitle.SRT)
	require.NoError(t, err)

	want := `1
00:00:00,000 --> 00:00:02,500
This is the first line

2
00:00:02,500 --> 00:00:05,000
[♪ Upbeat jazz music ♪]

3
00:00:05,000 --> 00:00:05,500
[Sound: door slamming]

4
00:00:05,500 --> 00:00:08,000
[Tense silence]
`
	assert.Equal(t, want, got)
}

func TestRenderVTT(t *testing.T) {
	got, err := subtitle.Render(sampleSegments(), subtitle.VTT)
	require.NoError(t, err)

	want := `WEBVTT

cue-1
00:00:00.000 --> 00:00:02.500
This is the first line

cue-2
00:00:02.500 --> 00:00:05.000
<i>[♪ Upbeat jazz music ♪]</i>

cue-3
00:00:05.000 --> 00:00:05.500
<b>[Sound: door slamming]</b>

cue-4
00:00:05.500 --> 00:00:08.000
[Tense silence]
`
	assert.Equal(t, want, got)
}

func TestRender_Idempotent(t *testing.T) {
	segments := sampleSegments()
	for _, f := range []subtitle.Format{subtitle.SRT, subtitle.VTT} {
		first, err := subtitle.Render(segments, f)
		require.NoError(t, err)
		second, err := subtitle.Render(segments, f)
		require.NoError(t, err)
		assert.Equal(t, first, second, f.String())
	}
}

func TestRender_DoesNotDoubleDecorate(t *testing.T) {
	// Decoration leaked through by the collaborator must not be wrapped again.
	segments := []caption.Segment{
		{Start: 0, End: sec(2), Text: "[♪ Already marked ♪]", Type: caption.Music},
		{Start: sec(2), End: sec(3), Text: "[Sound: already labeled]", Type: caption.Sound},
		{Start: sec(3), End: sec(4), Text: "[Silence]", Type: caption.Silence},
	}
	got, err := subtitle.Render(segments, subtitle.SRT)
	require.NoError(t, err)
	assert.NotContains(t, got, "[♪ [♪")
	assert.NotContains(t, got, "[Sound: [Sound:")
	assert.NotContains(t, got, "[[")
}

func TestRoundTrip(t *testing.T) {
	segments := sampleSegments()
	for _, f := range []subtitle.Format{subtitle.SRT, subtitle.VTT} {
		t.Run(f.String(), func(t *testing.T) {
			doc, err := subtitle.Render(segments, f)
			require.NoError(t, err)

			parsed, err := subtitle.Parse(doc, f)
			require.NoError(t, err)
			require.Len(t, parsed, len(segments))

			for i, want := range segments {
				assert.Equal(t, want.Start, parsed[i].Start, "segment %d start", i)
				assert.Equal(t, want.End, parsed[i].End, "segment %d end", i)
				assert.Equal(t, want.Type, parsed[i].Type, "segment %d type", i)
				assert.Equal(t, want.Text, parsed[i].Text, "segment %d text", i)
			}
		})
	}
}

func TestRender_Empty(t *testing.T) {
	got, err := subtitle.Render(nil, subtitle.SRT)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = subtitle.Render(nil, subtitle.VTT)
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n", got)
}

func TestParse_CRLF(t *testing.T) {
	doc := "1\r\n00:00:00,000 --> 00:00:01,000\r\nhello\r\n\r\n"
	parsed, err := subtitle.Parse(doc, subtitle.SRT)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "hello", parsed[0].Text)
}

func TestParse_VTTWithoutIdentifier(t *testing.T) {
	doc := "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhello\n"
	parsed, err := subtitle.Parse(doc, subtitle.VTT)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, time.Second, parsed[0].End)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		f    subtitle.Format
	}{
		{"srt missing timing", "1\nhello\n", subtitle.SRT},
		{"srt bad timestamp", "1\n00:00 --> 00:01\nhello\n", subtitle.SRT},
		{"vtt missing header", "cue-1\n00:00:00.000 --> 00:00:01.000\nhello\n", subtitle.VTT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := subtitle.Parse(tt.doc, tt.f)
			require.ErrorIs(t, err, subtitle.ErrInvalidDocument)
		})
	}
}

func TestTimestampOverAnHour(t *testing.T) {
	segments := []caption.Segment{
		{Start: time.Hour + 23*time.Minute + 45*time.Second + 678*time.Millisecond,
			End:  time.Hour + 23*time.Minute + 47*time.Second,
			Text: "late", Type: caption.Speech},
	}
	got, err := subtitle.Render(segments, subtitle.SRT)
	require.NoError(t, err)
	assert.Contains(t, got, "01:23:45,678 --> 01:23:47,000")
}
