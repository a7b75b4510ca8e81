package analyze_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duboc/go-captions/internal/analyze"
	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/caption"
)

// Notes:
// - Black-box testing via package analyze_test.
// - Uses export_test.go to inject a mock chat completer.
// - Retry tests use millisecond delays to keep the suite fast.

// mockCompleter implements the chat completer interface for testing.
type mockCompleter struct {
	mu        sync.Mutex
	calls     []openai.ChatCompletionRequest
	responses []openai.ChatCompletionResponse
	errors    []error
	callIndex int
}

func (m *mockCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	idx := m.callIndex
	m.callIndex++

	if idx < len(m.errors) && m.errors[idx] != nil {
		return openai.ChatCompletionResponse{}, m.errors[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return openai.ChatCompletionResponse{}, nil
}

func (m *mockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func textResponse(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
		Usage: openai.Usage{PromptTokens: 100, CompletionTokens: 20},
	}
}

func newAnalyzer(m *mockCompleter) *analyze.OpenAIAnalyzer {
	return analyze.NewOpenAIAnalyzer(nil,
		analyze.WithChatCompleter(m),
		analyze.WithRetryDelays(time.Millisecond, 2*time.Millisecond))
}

func testChunk() audio.Chunk {
	return audio.Chunk{Index: 1, Start: 30 * time.Second, End: 60 * time.Second}
}

func TestTranscribeChunk_Parsed(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`[
			{"text": "Hello there", "start": 0.0, "end": 2.5, "type": "speech"},
			{"text": "[♪ Soft piano ♪]", "start": 2.5, "end": 10.0, "type": "music"}
		]`),
	}}
	a := newAnalyzer(mock)

	res, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.NoError(t, err)
	require.Equal(t, analyze.Parsed, res.Verdict)
	require.Len(t, res.Segments, 2)

	// Local chunk timestamps shifted by the chunk's global start.
	assert.Equal(t, 30*time.Second, res.Segments[0].Start)
	assert.Equal(t, 32*time.Second+500*time.Millisecond, res.Segments[0].End)
	assert.Equal(t, caption.Speech, res.Segments[0].Type)
	assert.Equal(t, caption.Source{Kind: caption.ChunkTranscription, Index: 1}, res.Segments[0].Origin)

	// Decoration the model emitted anyway is stripped.
	assert.Equal(t, "Soft piano", res.Segments[1].Text)
	assert.Equal(t, caption.Music, res.Segments[1].Type)

	assert.Equal(t, analyze.TokenUsage{PromptTokens: 100, CompletionTokens: 20}, res.Usage)
}

func TestTranscribeChunk_ClampsHallucinatedTimestamps(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`[
			{"text": "runs past the window", "start": 25.0, "end": 40.0, "type": "speech"},
			{"text": "before the window", "start": -3.0, "end": 2.0, "type": "speech"},
			{"text": "entirely outside", "start": 35.0, "end": 41.0, "type": "speech"}
		]`),
	}}
	a := newAnalyzer(mock)

	res, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.NoError(t, err)
	require.Equal(t, analyze.Parsed, res.Verdict)
	require.Len(t, res.Segments, 2, "segment emptied by clamping is dropped")

	// Clamped to the chunk window, not discarded.
	assert.Equal(t, 55*time.Second, res.Segments[0].Start)
	assert.Equal(t, 60*time.Second, res.Segments[0].End)
	assert.Equal(t, 30*time.Second, res.Segments[1].Start)
	assert.Equal(t, 32*time.Second, res.Segments[1].End)
}

func TestTranscribeChunk_Unparsable(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse("I'm sorry, I can't make out anything in this audio."),
	}}
	a := newAnalyzer(mock)

	res, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.NoError(t, err, "unparsable output is a verdict, not an error")
	assert.Equal(t, analyze.Unparsable, res.Verdict)
	assert.Empty(t, res.Segments)
	assert.Equal(t, 120, res.Usage.Total(), "usage still accounted")
}

func TestTranscribeChunk_Empty(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{textResponse(`[]`)}}
	a := newAnalyzer(mock)

	res, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.NoError(t, err)
	assert.Equal(t, analyze.Empty, res.Verdict)
}

func TestTranscribeChunk_RequestShape(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{textResponse(`[]`)}}
	a := newAnalyzer(mock)

	_, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.NoError(t, err)

	require.Len(t, mock.calls, 1)
	req := mock.calls[0]
	assert.Equal(t, analyze.DefaultAudioModel, req.Model)
	require.Len(t, req.Messages, 1)
	parts := req.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, openai.ChatMessagePartTypeInputAudio, parts[0].Type)
	require.NotNil(t, parts[0].InputAudio)
	assert.Equal(t, "mp3", parts[0].InputAudio.Format)
	assert.Equal(t, openai.ChatMessagePartTypeText, parts[1].Type)
	assert.Contains(t, parts[1].Text, "starts at 30.00 seconds")
}

func TestTranscribeChunk_RetriesServerError(t *testing.T) {
	mock := &mockCompleter{
		errors: []error{
			&openai.APIError{HTTPStatusCode: 500, Message: "server exploded"},
			nil,
		},
		responses: []openai.ChatCompletionResponse{
			{}, // consumed by the failed attempt
			textResponse(`[{"text":"ok","start":0,"end":1,"type":"speech"}]`),
		},
	}
	a := newAnalyzer(mock)

	res, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.NoError(t, err)
	assert.Equal(t, analyze.Parsed, res.Verdict)
	assert.Equal(t, 2, mock.CallCount())
}

func TestTranscribeChunk_AuthErrorNotRetried(t *testing.T) {
	mock := &mockCompleter{
		errors: []error{&openai.APIError{HTTPStatusCode: 401, Message: "bad key"}},
	}
	a := newAnalyzer(mock)

	_, err := a.TranscribeChunk(context.Background(), []byte("audio"), testChunk())
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestClassifyGap_Parsed(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`{"type": "music", "text": "Suspenseful strings"}`),
	}}
	a := newAnalyzer(mock)

	gap := caption.Gap{Start: 5 * time.Second, End: 8 * time.Second}
	res, err := a.ClassifyGap(context.Background(), []byte("audio"), gap, 3)
	require.NoError(t, err)
	require.Equal(t, analyze.Parsed, res.Verdict)

	assert.Equal(t, gap.Start, res.Segment.Start)
	assert.Equal(t, gap.End, res.Segment.End)
	assert.Equal(t, caption.Music, res.Segment.Type)
	assert.Equal(t, "Suspenseful strings", res.Segment.Text)
	assert.Equal(t, caption.Source{Kind: caption.GapFill, Index: 3}, res.Segment.Origin)
}

func TestClassifyGap_OffProtocolTypeBecomesSound(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`{"type": "speech", "text": "muffled talking"}`),
	}}
	a := newAnalyzer(mock)

	res, err := a.ClassifyGap(context.Background(), nil, caption.Gap{End: time.Second}, 0)
	require.NoError(t, err)
	assert.Equal(t, caption.Sound, res.Segment.Type)
}

func TestClassifyGap_Unparsable(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse("no JSON here"),
	}}
	a := newAnalyzer(mock)

	res, err := a.ClassifyGap(context.Background(), nil, caption.Gap{End: time.Second}, 0)
	require.NoError(t, err)
	assert.Equal(t, analyze.Unparsable, res.Verdict)
}

func TestOptimizeTiming_Parsed(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`[{"text": "Hello there", "start": 2.0, "end": 2.6, "type": "speech"}]`),
	}}
	a := newAnalyzer(mock)

	input := []caption.Segment{
		{Start: 2 * time.Second, End: 2*time.Second + 400*time.Millisecond, Text: "Hello", Type: caption.Speech},
		{Start: 2*time.Second + 400*time.Millisecond, End: 2*time.Second + 600*time.Millisecond, Text: "there", Type: caption.Speech},
	}
	res, err := a.OptimizeTiming(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, analyze.Parsed, res.Verdict)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, "Hello there", res.Segments[0].Text)
	assert.Equal(t, 2*time.Second+600*time.Millisecond, res.Segments[0].End)

	// The request is text-only against the timing model and carries the
	// full segment list.
	require.Len(t, mock.calls, 1)
	req := mock.calls[0]
	assert.Equal(t, analyze.DefaultTimingModel, req.Model)
	assert.Empty(t, req.Messages[0].MultiContent)
	assert.True(t, strings.Contains(req.Messages[0].Content, `"Hello"`))
	assert.True(t, strings.Contains(req.Messages[0].Content, `"there"`))
}

func TestOptimizeTiming_Unparsable(t *testing.T) {
	mock := &mockCompleter{responses: []openai.ChatCompletionResponse{
		textResponse("the segments look fine to me"),
	}}
	a := newAnalyzer(mock)

	res, err := a.OptimizeTiming(context.Background(), []caption.Segment{
		{Start: 0, End: time.Second, Text: "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, analyze.Unparsable, res.Verdict)
}

func TestUsageReport_Total(t *testing.T) {
	r := analyze.UsageReport{
		Transcription: analyze.TokenUsage{PromptTokens: 10, CompletionTokens: 1},
		GapAnalysis:   analyze.TokenUsage{PromptTokens: 20, CompletionTokens: 2},
		Optimization:  analyze.TokenUsage{PromptTokens: 30, CompletionTokens: 3},
	}
	assert.Equal(t, analyze.TokenUsage{PromptTokens: 60, CompletionTokens: 6}, r.Total())
	assert.Equal(t, 66, r.Total().Total())
}
