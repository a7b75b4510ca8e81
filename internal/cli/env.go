package cli

import (
	"context"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/duboc/go-captions/internal/analyze"
	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/config"
	"github.com/duboc/go-captions/internal/engine"
	"github.com/duboc/go-captions/internal/ffmpeg"
	"github.com/duboc/go-captions/internal/logging"
)

// EnvOpenAIAPIKey is the environment variable holding the API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields with the With* options.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// Factories for domain objects
	FFmpegResolver FFmpegResolver
	ConfigLoader   ConfigLoader
	EngineFactory  EngineFactory
	LoggerFactory  LoggerFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve() (string, error)
}

// ConfigLoader loads and validates configuration.
type ConfigLoader interface {
	Load(configFile string) (config.Config, error)
}

// Runner runs one captioning job.
type Runner interface {
	Run(ctx context.Context, source string) (*engine.Result, error)
}

// EngineFactory assembles the captioning pipeline from configuration.
type EngineFactory interface {
	NewEngine(apiKey, ffmpegPath string, cfg config.Config, logger *zap.Logger, extra ...engine.Option) (Runner, error)
}

// LoggerFactory builds the job logger for the requested verbosity.
type LoggerFactory func(verbose bool) *zap.Logger

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithEngineFactory sets the engine factory.
func WithEngineFactory(f EngineFactory) EnvOption {
	return func(e *Env) {
		e.EngineFactory = f
	}
}

// WithLoggerFactory sets the logger factory.
func WithLoggerFactory(f LoggerFactory) EnvOption {
	return func(e *Env) {
		e.LoggerFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Getenv:         os.Getenv,
		FFmpegResolver: &defaultFFmpegResolver{},
		ConfigLoader:   &defaultConfigLoader{},
		EngineFactory:  &defaultEngineFactory{},
		LoggerFactory:  logging.New,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve() (string, error) {
	return ffmpeg.Resolve()
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(configFile string) (config.Config, error) {
	return config.Load(configFile)
}

type defaultEngineFactory struct{}

func (defaultEngineFactory) NewEngine(apiKey, ffmpegPath string, cfg config.Config, logger *zap.Logger, extra ...engine.Option) (Runner, error) {
	client := openai.NewClient(apiKey)
	analyzer := analyze.NewOpenAIAnalyzer(client,
		analyze.WithAudioModel(cfg.AudioModel),
		analyze.WithTimingModel(cfg.TimingModel),
		analyze.WithMaxRetries(cfg.MaxRetries),
	)

	extractor, err := audio.NewFFmpegExtractor(ffmpegPath)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithChunkSize(cfg.ChunkSize),
		engine.WithGapThreshold(cfg.GapThreshold),
		engine.WithMaxParallel(cfg.Parallel),
		engine.WithLogger(logger),
	}
	return engine.New(analyzer, extractor, append(opts, extra...)...)
}
