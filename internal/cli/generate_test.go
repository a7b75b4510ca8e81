package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duboc/go-captions/internal/caption"
	"github.com/duboc/go-captions/internal/cli"
	"github.com/duboc/go-captions/internal/config"
	"github.com/duboc/go-captions/internal/engine"
	"github.com/duboc/go-captions/internal/subtitle"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockResolver struct {
	path string
	err  error
}

func (m *mockResolver) Resolve() (string, error) {
	return m.path, m.err
}

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load(string) (config.Config, error) {
	return m.cfg, m.err
}

type mockRunner struct {
	result *engine.Result
	err    error
	calls  int
}

func (m *mockRunner) Run(context.Context, string) (*engine.Result, error) {
	m.calls++
	return m.result, m.err
}

type mockEngineFactory struct {
	runner *mockRunner
	err    error
	calls  int
	gotKey string
	gotCfg config.Config
}

func (m *mockEngineFactory) NewEngine(apiKey, _ string, cfg config.Config, _ *zap.Logger, _ ...engine.Option) (cli.Runner, error) {
	m.calls++
	m.gotKey = apiKey
	m.gotCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return m.runner, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	env     *cli.Env
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	factory *mockEngineFactory
	input   string
	dir     string
}

func testSegments() []caption.Segment {
	return []caption.Segment{
		{Start: 0, End: 2 * time.Second, Text: "Hello everyone", Type: caption.Speech},
		{Start: 2 * time.Second, End: 5 * time.Second, Text: "upbeat theme", Type: caption.Music},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "episode.mp4")
	require.NoError(t, os.WriteFile(input, []byte("fake media"), 0o644))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	factory := &mockEngineFactory{
		runner: &mockRunner{
			result: &engine.Result{Segments: testSegments()},
		},
	}

	env := cli.NewEnv(
		cli.WithStdout(stdout),
		cli.WithStderr(stderr),
		cli.WithGetenv(func(key string) string {
			if key == cli.EnvOpenAIAPIKey {
				return "sk-test"
			}
			return ""
		}),
		cli.WithFFmpegResolver(&mockResolver{path: "/usr/bin/ffmpeg"}),
		cli.WithConfigLoader(&mockConfigLoader{cfg: config.Default()}),
		cli.WithEngineFactory(factory),
		cli.WithLoggerFactory(func(bool) *zap.Logger { return zap.NewNop() }),
	)

	return &fixture{env: env, stdout: stdout, stderr: stderr, factory: factory, input: input, dir: dir}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestGenerateWritesOutputFile(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := execute(t, cli.GenerateCmd(fx.env), fx.input)
	require.NoError(t, err)

	want, err := subtitle.Render(testSegments(), subtitle.SRT)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(fx.dir, "episode.srt"))
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	assert.Contains(t, fx.stderr.String(), "Wrote 2 caption(s)")
	assert.Contains(t, fx.stderr.String(), "Token usage")
	assert.Equal(t, "sk-test", fx.factory.gotKey)
}

func TestGenerateWritesToStdout(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := execute(t, cli.GenerateCmd(fx.env), fx.input, "-o", "-", "-f", "vtt")
	require.NoError(t, err)

	want, err := subtitle.Render(testSegments(), subtitle.VTT)
	require.NoError(t, err)
	assert.Equal(t, want, fx.stdout.String())
}

func TestGenerateFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := execute(t, cli.GenerateCmd(fx.env), fx.input,
		"--chunk-size", "45s", "--gap-threshold", "2s", "-p", "99", "-f", "vtt", "-o", "-")
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, fx.factory.gotCfg.ChunkSize)
	assert.Equal(t, 2*time.Second, fx.factory.gotCfg.GapThreshold)
	assert.Equal(t, engine.MaxRecommendedParallel, fx.factory.gotCfg.Parallel)
	assert.Equal(t, "vtt", fx.factory.gotCfg.Format)
}

func TestGenerateMissingInput(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := execute(t, cli.GenerateCmd(fx.env), filepath.Join(fx.dir, "absent.mp4"))
	assert.ErrorIs(t, err, cli.ErrFileNotFound)
	assert.Zero(t, fx.factory.calls)
}

func TestGenerateMissingAPIKey(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	cli.WithGetenv(func(string) string { return "" })(fx.env)

	err := execute(t, cli.GenerateCmd(fx.env), fx.input)
	assert.ErrorIs(t, err, cli.ErrAPIKeyMissing)
	assert.Zero(t, fx.factory.calls)
}

func TestGenerateUnknownFormat(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := execute(t, cli.GenerateCmd(fx.env), fx.input, "-f", "ass")
	assert.ErrorIs(t, err, subtitle.ErrUnsupportedFormat)
	assert.Zero(t, fx.factory.calls)
}

func TestGenerateOutputExists(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	existing := filepath.Join(fx.dir, "episode.srt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	err := execute(t, cli.GenerateCmd(fx.env), fx.input)
	assert.ErrorIs(t, err, cli.ErrOutputExists)

	// The existing file is untouched.
	got, readErr := os.ReadFile(existing)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(got))
}

func TestGenerateRunFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.factory.runner.result = nil
	fx.factory.runner.err = errors.New("probe failed")

	err := execute(t, cli.GenerateCmd(fx.env), fx.input)
	assert.ErrorContains(t, err, "probe failed")
	assert.Empty(t, fx.stdout.String())
}

func TestGeneratePartialResultStillWritten(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.factory.runner.err = context.Canceled

	err := execute(t, cli.GenerateCmd(fx.env), fx.input, "--partial", "-o", "-")
	assert.ErrorIs(t, err, context.Canceled)

	want, renderErr := subtitle.Render(testSegments(), subtitle.SRT)
	require.NoError(t, renderErr)
	assert.Equal(t, want, fx.stdout.String())
	assert.Contains(t, fx.stderr.String(), "Interrupted")
}

func TestFormatsListsSupportedFormats(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := execute(t, cli.FormatsCmd(fx.env))
	require.NoError(t, err)

	assert.Contains(t, fx.stdout.String(), "srt")
	assert.Contains(t, fx.stdout.String(), ".vtt")
}
