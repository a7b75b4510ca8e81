package analyze

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/duboc/go-captions/internal/apierr"
	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/caption"
	"github.com/duboc/go-captions/internal/prompt"
)

// Model identifiers. The audio model accepts inline audio content parts;
// the timing model is text-only and cheaper, sufficient for reflowing
// JSON. Neither is defined as a constant in go-openai yet, so we define
// them locally.
const (
	// DefaultAudioModel handles multimodal transcription and gap
	// classification requests.
	DefaultAudioModel = "gpt-4o-audio-preview"

	// DefaultTimingModel handles the text-only timing optimization pass.
	DefaultTimingModel = "gpt-4o-mini"
)

// Default retry configuration. Audio requests carry megabytes of payload,
// so retries are bounded tighter than a typical text API client.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Analyzer is the audio understanding service boundary consumed by the
// engine. Implementations must tolerate arbitrary reply shapes: parse
// problems surface as verdicts, errors are reserved for transport and
// auth failures that survived retry.
type Analyzer interface {
	// TranscribeChunk classifies and transcribes one chunk's audio,
	// returning segments in global timeline coordinates.
	TranscribeChunk(ctx context.Context, payload []byte, chunk audio.Chunk) (ChunkResult, error)

	// ClassifyGap classifies the content of one uncovered interval.
	// No transcription is requested; the interval was already checked for
	// dialogue by the chunk pass.
	ClassifyGap(ctx context.Context, payload []byte, gap caption.Gap, index int) (GapResult, error)

	// OptimizeTiming submits the entire segment sequence for a holistic
	// timing revision and returns the revised sequence.
	OptimizeTiming(ctx context.Context, segments []caption.Segment) (OptimizeResult, error)
}

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly; tests inject mocks.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Analyzer      = (*OpenAIAnalyzer)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAIAnalyzer implements Analyzer over OpenAI's chat completion API,
// sending audio as base64 input_audio content parts. All calls retry
// transient failures with exponential backoff.
type OpenAIAnalyzer struct {
	client      chatCompleter
	audioModel  string
	timingModel string
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// Option configures an OpenAIAnalyzer.
type Option func(*OpenAIAnalyzer)

// WithAudioModel sets the model for audio transcription and gap analysis.
func WithAudioModel(model string) Option {
	return func(a *OpenAIAnalyzer) {
		a.audioModel = model
	}
}

// WithTimingModel sets the model for the timing optimization pass.
func WithTimingModel(model string) Option {
	return func(a *OpenAIAnalyzer) {
		a.timingModel = model
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(a *OpenAIAnalyzer) {
		if n >= 0 {
			a.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(a *OpenAIAnalyzer) {
		if base > 0 {
			a.baseDelay = base
		}
		if max > 0 {
			a.maxDelay = max
		}
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) Option {
	return func(a *OpenAIAnalyzer) {
		a.client = cc
	}
}

// NewOpenAIAnalyzer creates an analyzer backed by the given client.
// The client is stateless and may be shared across concurrent calls and
// across jobs.
func NewOpenAIAnalyzer(client *openai.Client, opts ...Option) *OpenAIAnalyzer {
	a := &OpenAIAnalyzer{
		client:      client,
		audioModel:  DefaultAudioModel,
		timingModel: DefaultTimingModel,
		maxRetries:  defaultMaxRetries,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TranscribeChunk sends one chunk's audio with the transcription prompt
// and parses the reply into global-coordinate segments.
func (a *OpenAIAnalyzer) TranscribeChunk(ctx context.Context, payload []byte, chunk audio.Chunk) (ChunkResult, error) {
	promptText, err := prompt.TranscribeName.Render(prompt.TranscribeData{
		ChunkStart:    fmt.Sprintf("%.2f", chunk.Start.Seconds()),
		ChunkDuration: fmt.Sprintf("%.2f", chunk.Duration().Seconds()),
	})
	if err != nil {
		return ChunkResult{}, err
	}

	text, usage, err := a.complete(ctx, a.audioRequest(promptText, payload))
	if err != nil {
		return ChunkResult{Usage: usage}, err
	}

	var wire []wireSegment
	if !extractJSONArray(text, &wire) {
		return ChunkResult{Verdict: Unparsable, Usage: usage}, nil
	}
	if len(wire) == 0 {
		return ChunkResult{Verdict: Empty, Usage: usage}, nil
	}

	segments := chunkSegments(wire, chunk)
	if len(segments) == 0 {
		// Every reported interval collapsed under clamping.
		return ChunkResult{Verdict: Empty, Usage: usage}, nil
	}
	return ChunkResult{Verdict: Parsed, Segments: segments, Usage: usage}, nil
}

// ClassifyGap sends one gap's audio with the classification-only prompt.
// A parsed reply yields exactly one segment spanning the full gap.
func (a *OpenAIAnalyzer) ClassifyGap(ctx context.Context, payload []byte, gap caption.Gap, index int) (GapResult, error) {
	promptText, err := prompt.ClassifyName.Render(prompt.ClassifyData{
		Start: fmt.Sprintf("%.2f", gap.Start.Seconds()),
		End:   fmt.Sprintf("%.2f", gap.End.Seconds()),
	})
	if err != nil {
		return GapResult{}, err
	}

	text, usage, err := a.complete(ctx, a.audioRequest(promptText, payload))
	if err != nil {
		return GapResult{Usage: usage}, err
	}

	var wire wireClassification
	if !extractJSONObject(text, &wire) || wire.Text == "" {
		return GapResult{Verdict: Unparsable, Usage: usage}, nil
	}

	ctype := caption.ParseContentType(wire.Type)
	if ctype == caption.Speech {
		// The classification prompt never asks for speech; an off-protocol
		// type string is treated as a sound description.
		ctype = caption.Sound
	}
	return GapResult{
		Verdict: Parsed,
		Segment: caption.Segment{
			Start:  gap.Start,
			End:    gap.End,
			Text:   stripMarkers(wire.Text, ctype),
			Type:   ctype,
			Origin: caption.Source{Kind: caption.GapFill, Index: index},
		},
		Usage: usage,
	}, nil
}

// OptimizeTiming sends the whole segment list in one text-only request
// and parses the revised list. Provenance is not preserved across
// optimization; revised segments carry a zero Origin.
func (a *OpenAIAnalyzer) OptimizeTiming(ctx context.Context, segments []caption.Segment) (OptimizeResult, error) {
	wire := make([]wireSegment, len(segments))
	for i, s := range segments {
		wire[i] = wireSegment{
			Text:  s.Text,
			Start: s.Start.Seconds(),
			End:   s.End.Seconds(),
			Type:  s.Type.String(),
		}
	}
	segmentsJSON, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return OptimizeResult{}, err
	}

	promptText, err := prompt.OptimizeName.Render(prompt.OptimizeData{
		SegmentsJSON: string(segmentsJSON),
	})
	if err != nil {
		return OptimizeResult{}, err
	}

	req := openai.ChatCompletionRequest{
		Model: a.timingModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: promptText},
		},
		Temperature: 0, // Deterministic output for reproducibility
	}

	text, usage, err := a.complete(ctx, req)
	if err != nil {
		return OptimizeResult{Usage: usage}, err
	}

	var revised []wireSegment
	if !extractJSONArray(text, &revised) || len(revised) == 0 {
		return OptimizeResult{Verdict: Unparsable, Usage: usage}, nil
	}

	out := make([]caption.Segment, 0, len(revised))
	for _, w := range revised {
		ctype := caption.ParseContentType(w.Type)
		out = append(out, caption.Segment{
			Start: secondsToDuration(w.Start),
			End:   secondsToDuration(w.End),
			Text:  stripMarkers(w.Text, ctype),
			Type:  ctype,
		})
	}
	return OptimizeResult{Verdict: Parsed, Segments: out, Usage: usage}, nil
}

// audioRequest builds a multimodal request carrying the audio payload and
// the instructional prompt.
func (a *OpenAIAnalyzer) audioRequest(promptText string, payload []byte) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: a.audioModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeInputAudio,
						InputAudio: &openai.ChatMessagePartInputAudio{
							Data:   base64.StdEncoding.EncodeToString(payload),
							Format: audio.AudioFormat,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: promptText,
					},
				},
			},
		},
		Temperature: 0, // Deterministic output for reproducibility
	}
}

// complete executes a chat completion with exponential backoff retry and
// returns the reply text plus token usage.
func (a *OpenAIAnalyzer) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, TokenUsage, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: a.maxRetries,
		BaseDelay:  a.baseDelay,
		MaxDelay:   a.maxDelay,
	}

	type reply struct {
		text  string
		usage TokenUsage
	}

	r, err := apierr.RetryWithBackoff(ctx, cfg, func() (reply, error) {
		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return reply{}, classifyError(err)
		}
		usage := TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
		if len(resp.Choices) == 0 {
			return reply{usage: usage}, fmt.Errorf("no response choices")
		}
		return reply{text: resp.Choices[0].Message.Content, usage: usage}, nil
	}, isRetryableError)

	return r.text, r.usage, err
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Distinguish temporary rate limits from quota exhaustion
			// (billing issue, requires user action, never retried).
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}

// isRetryableError determines if an error is transient and worth retrying.
func isRetryableError(err error) bool {
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout) {
		return true
	}

	// Server errors (5xx) are retryable.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
