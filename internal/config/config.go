// Package config provides type-safe access to application settings.
// Precedence: environment variables, then config file values, then
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/duboc/go-captions/internal/analyze"
	"github.com/duboc/go-captions/internal/audio"
	"github.com/duboc/go-captions/internal/engine"
	"github.com/duboc/go-captions/internal/subtitle"
)

// EnvPrefix is prepended to environment variable names,
// e.g. CAPTIONS_CHUNK_SIZE overrides the chunk_size key.
const EnvPrefix = "CAPTIONS"

// ErrInvalid indicates a configuration value outside its valid range.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the user-tunable settings for caption jobs.
type Config struct {
	ChunkSize    time.Duration `mapstructure:"chunk_size"`
	GapThreshold time.Duration `mapstructure:"gap_threshold"`
	Parallel     int           `mapstructure:"parallel"`
	Format       string        `mapstructure:"format"`
	MaxRetries   int           `mapstructure:"max_retries"`
	AudioModel   string        `mapstructure:"audio_model"`
	TimingModel  string        `mapstructure:"timing_model"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ChunkSize:    audio.DefaultChunkSize,
		GapThreshold: engine.DefaultGapThreshold,
		Parallel:     engine.DefaultMaxParallel,
		Format:       subtitle.SRT.String(),
		MaxRetries:   3,
		AudioModel:   analyze.DefaultAudioModel,
		TimingModel:  analyze.DefaultTimingModel,
	}
}

// Load reads configuration from the optional config file and the
// environment. An empty configFile means defaults plus environment only.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("chunk_size", defaults.ChunkSize)
	v.SetDefault("gap_threshold", defaults.GapThreshold)
	v.SetDefault("parallel", defaults.Parallel)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("max_retries", defaults.MaxRetries)
	v.SetDefault("audio_model", defaults.AudioModel)
	v.SetDefault("timing_model", defaults.TimingModel)
}

// Validate checks every value against its valid range.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size %v must be positive: %w", c.ChunkSize, ErrInvalid)
	}
	if c.GapThreshold <= 0 {
		return fmt.Errorf("gap_threshold %v must be positive: %w", c.GapThreshold, ErrInvalid)
	}
	if c.Parallel < 1 || c.Parallel > engine.MaxRecommendedParallel {
		return fmt.Errorf("parallel %d must be in [1, %d]: %w",
			c.Parallel, engine.MaxRecommendedParallel, ErrInvalid)
	}
	if _, err := subtitle.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries %d cannot be negative: %w", c.MaxRetries, ErrInvalid)
	}
	if c.AudioModel == "" || c.TimingModel == "" {
		return fmt.Errorf("model names cannot be empty: %w", ErrInvalid)
	}
	return nil
}
