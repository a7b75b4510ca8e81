package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/duboc/go-captions/internal/engine"
	"github.com/duboc/go-captions/internal/subtitle"
)

// generateFlags holds the flag values for the generate command.
type generateFlags struct {
	output       string
	format       string
	configFile   string
	chunkSize    time.Duration
	gapThreshold time.Duration
	parallel     int
	partial      bool
	verbose      bool
}

// GenerateCmd creates the generate command.
// The env parameter provides injectable dependencies for testing.
func GenerateCmd(env *Env) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate <media-file>",
		Short: "Generate captions for a video or audio file",
		Long: `Generate time-aligned captions for a media file.

The audio track is analyzed in fixed-size windows, uncovered intervals are
classified separately, and the resulting caption timeline is written as an
SRT or WebVTT document. Non-dialogue audio (music, sound effects, silence)
is captioned too.

Use "-" as the output path to write the document to stdout.`,
		Example: `  captions generate episode.mp4
  captions generate episode.mp4 -f vtt -o episode.vtt
  captions generate interview.mp3 --chunk-size 45s --parallel 8
  captions generate episode.mp4 -o - > episode.srt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, env, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path (default: <input>.<format>, \"-\" for stdout)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Subtitle format: srt, vtt")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "Config file path")
	cmd.Flags().DurationVar(&flags.chunkSize, "chunk-size", 0, "Analysis window length (e.g. 30s)")
	cmd.Flags().DurationVar(&flags.gapThreshold, "gap-threshold", 0, "Minimum uncovered interval to classify (e.g. 1s)")
	cmd.Flags().IntVarP(&flags.parallel, "parallel", "p", 0, "Max concurrent API requests (1-10)")
	cmd.Flags().BoolVar(&flags.partial, "partial", false, "On interrupt, write captions assembled so far")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// runGenerate executes the captioning pipeline.
// Validation order: file exists -> config -> format -> API key -> ffmpeg.
func runGenerate(cmd *cobra.Command, env *Env, inputPath string, flags generateFlags) error {
	ctx := cmd.Context()

	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	cfg, err := env.ConfigLoader.Load(flags.configFile)
	if err != nil {
		return err
	}

	// Flags override file and environment configuration.
	if flags.chunkSize > 0 {
		cfg.ChunkSize = flags.chunkSize
	}
	if flags.gapThreshold > 0 {
		cfg.GapThreshold = flags.gapThreshold
	}
	if flags.parallel > 0 {
		cfg.Parallel = min(flags.parallel, engine.MaxRecommendedParallel)
	}
	if flags.format != "" {
		cfg.Format = flags.format
	}

	format, err := subtitle.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = deriveOutputPath(inputPath, format)
	}

	apiKey := env.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve()
	if err != nil {
		return err
	}

	logger := env.LoggerFactory(flags.verbose)
	defer func() { _ = logger.Sync() }()

	runner, err := env.EngineFactory.NewEngine(apiKey, ffmpegPath, cfg, logger,
		engine.WithPartialResults(flags.partial))
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Generating captions for %s...\n", inputPath)

	result, runErr := runner.Run(ctx, inputPath)
	if runErr != nil && result == nil {
		return runErr
	}
	if runErr != nil {
		// Interrupted with partial results requested: write what we have.
		fmt.Fprintf(env.Stderr, "Interrupted; writing %d caption(s) assembled so far\n",
			len(result.Segments))
	}

	doc, err := subtitle.Render(result.Segments, format)
	if err != nil {
		return err
	}

	if output == "-" {
		if _, err := fmt.Fprint(env.Stdout, doc); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		if err := writeFileAtomic(output, doc); err != nil {
			return err
		}
		fmt.Fprintf(env.Stderr, "Wrote %d caption(s) to %s\n", len(result.Segments), output)
	}

	usage := result.Usage.Total()
	fmt.Fprintf(env.Stderr, "Token usage: %d prompt, %d completion\n",
		usage.PromptTokens, usage.CompletionTokens)

	return runErr
}
