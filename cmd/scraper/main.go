package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/scraper/internal/config"
	"github.com/chaz8081/scraper/internal/dispatch"
	"github.com/chaz8081/scraper/internal/logging"
	"github.com/chaz8081/scraper/internal/ocr"
	"github.com/chaz8081/scraper/internal/pdftext"
	"github.com/chaz8081/scraper/internal/sink"
	"github.com/chaz8081/scraper/internal/transcribe"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUnsupported = 2
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	language   string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	defer transcribe.ShutdownRuntime()

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("scraper failed", "error", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, dispatch.ErrUnsupported):
		return exitUnsupported
	default:
		return exitFailure
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "scraper <input> [output]",
		Short: "Extract text from PDF, image and audio files",
		Long: `scraper converts a PDF (.pdf), image (.png, .jpg) or audio (.webm, .weba)
file into plain text. PDFs are read page by page, images go through Tesseract
OCR and audio is transcribed with a silero speech model downloaded on each run.

The text is written to [output], or next to the input with a .txt suffix.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags)
			if err != nil {
				return err
			}
			explicit := ""
			if len(args) == 2 {
				explicit = args[1]
			}
			return runExtract(cmd.Context(), cfg, args[0], explicit)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config file (default: ~/.config/scraper/config.yaml)")
	pf.StringVar(&flags.language, "language", "", "speech model language (overrides transcribe.language)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")

	root.AddCommand(
		newLanguagesCmd(flags),
		newListenCmd(flags),
		newInitConfigCmd(),
		newScoreCmd(),
	)
	return root
}

// setup loads, overrides and validates the config, then installs the logger.
func setup(flags *globalFlags) (*config.Config, error) {
	cfg, source, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.ApplyEnv()
	if flags.language != "" {
		cfg.Transcribe.Language = flags.language
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logging.Setup(cfg)
	slog.Debug("config loaded",
		"source", source,
		"sink", cfg.Output.Sink,
		"backend", cfg.Transcribe.Backend,
		"language", cfg.Transcribe.Language,
		"ocr_languages", cfg.OCR.Languages,
	)
	return cfg, nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. The second return
// value names where the config came from.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, defaultPath, nil
	}

	// No config file, use defaults
	return config.Default(), "defaults", nil
}

// runExtract wires the extractors and the output sink, then dispatches input.
func runExtract(ctx context.Context, cfg *config.Config, input, explicit string) error {
	if _, ok := dispatch.KindOf(input); !ok {
		return fmt.Errorf("%s: %w (supported: pdf, png, jpg, webm, weba)", input, dispatch.ErrUnsupported)
	}

	out, err := sink.Default.New(ctx, cfg.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	d := dispatch.New(map[dispatch.Kind]dispatch.Extractor{
		dispatch.KindPDF:   pdftext.New(cfg.PDF),
		dispatch.KindImage: ocr.New(cfg.OCR),
		dispatch.KindAudio: transcribeFunc(cfg.Transcribe),
	}, out)

	output := dispatch.OutputPath(input, explicit, cfg.Output.Dir, cfg.Output.Suffix)
	return d.Run(ctx, input, output)
}

// transcribeFunc builds the configured transcriber only when an audio file
// is extracted, so backend settings never affect PDF or image runs.
func transcribeFunc(cfg config.TranscribeConfig) dispatch.ExtractorFunc {
	return func(ctx context.Context, path string) (string, error) {
		tr, err := transcribe.New(cfg, os.Stderr)
		if err != nil {
			return "", err
		}
		defer tr.Close()
		return tr.Transcribe(ctx, path)
	}
}
