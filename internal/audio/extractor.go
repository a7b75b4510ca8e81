package audio

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/duboc/go-captions/internal/ffmpeg"
)

// MimeType is the mime type of extracted audio payloads.
const MimeType = "audio/mp3"

// AudioFormat is the container format of extracted payloads, as named in
// collaborator requests.
const AudioFormat = "mp3"

// Extractor retrieves raw audio for a time range of a source media file.
// It is the media-extraction collaborator boundary: the pipeline never
// performs codec work itself.
type Extractor interface {
	// Extract returns the audio bytes for [start, end] of the source,
	// re-encoded to mono 16kHz MP3 suitable for content analysis.
	Extract(ctx context.Context, source string, start, end time.Duration) ([]byte, error)

	// ProbeDuration returns the total duration of the source media.
	ProbeDuration(ctx context.Context, source string) (time.Duration, error)
}

// Compile-time interface implementation check.
var _ Extractor = (*FFmpegExtractor)(nil)

// FFmpegExtractor implements Extractor by shelling out to ffmpeg and
// reading the extracted range from stdout.
type FFmpegExtractor struct {
	ffmpegPath string
	cmd        commandRunner
}

// ExtractorOption configures an FFmpegExtractor.
type ExtractorOption func(*FFmpegExtractor)

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) ExtractorOption {
	return func(e *FFmpegExtractor) {
		e.cmd = r
	}
}

// NewFFmpegExtractor creates an extractor using the given ffmpeg binary.
func NewFFmpegExtractor(ffmpegPath string, opts ...ExtractorOption) (*FFmpegExtractor, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	e := &FFmpegExtractor{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract returns the audio bytes for [start, end] of the source file.
// The range is re-encoded to mono 16kHz MP3: a fixed sample format keeps
// collaborator input uniform regardless of the source container, and
// re-encoding produces valid output even from truncated sources.
func (e *FFmpegExtractor) Extract(ctx context.Context, source string, start, end time.Duration) ([]byte, error) {
	args := []string{
		"-i", source,
		"-ss", formatTime(start),
		"-to", formatTime(end),
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "mp3",
		"pipe:1",
	}

	stdout, stderr, err := e.cmd.Run(ctx, e.ffmpegPath, args)
	if err != nil {
		return nil, fmt.Errorf("%w: range %s of %s: %v\nOutput: %s",
			ErrExtractionFailed, formatTime(start)+"-"+formatTime(end), source, err, string(stderr))
	}
	if len(stdout) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output for range %s-%s",
			ErrExtractionFailed, formatTime(start), formatTime(end))
	}
	return stdout, nil
}

// ProbeDuration returns the duration of the source media.
// ffmpeg prints file info (including duration) to stderr even without an
// output file, and returns non-zero doing so, so the output is parsed
// regardless of the exit status.
func (e *FFmpegExtractor) ProbeDuration(ctx context.Context, source string) (time.Duration, error) {
	args := []string{
		"-i", source,
		"-f", "null", "-",
	}
	_, stderr, err := e.cmd.Run(ctx, e.ffmpegPath, args)
	if err != nil && len(stderr) == 0 {
		return 0, fmt.Errorf("%w: %v", ErrNoDuration, err)
	}
	return parseDurationOutput(string(stderr))
}

// parseDurationOutput extracts duration from ffmpeg stderr.
// Looks for: "Duration: HH:MM:SS.cc" or "time=HH:MM:SS.cc"
func parseDurationOutput(output string) (time.Duration, error) {
	durationRe := regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	if matches := durationRe.FindStringSubmatch(output); matches != nil {
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}

	// Fallback pattern from progress output; the last match is the final time.
	timeRe := regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
	allMatches := timeRe.FindAllStringSubmatch(output, -1)
	if len(allMatches) > 0 {
		matches := allMatches[len(allMatches)-1]
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}

	return 0, ErrNoDuration
}

// parseTimeComponents converts HH:MM:SS.frac strings to a Duration.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	// Normalize the fractional part to milliseconds.
	// Input may be 1-6+ digits (e.g., ".4", ".45", ".456", ".456789").
	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n == 3:
		// Already milliseconds.
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// formatTime formats a duration for ffmpeg -ss/-to arguments.
func formatTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
