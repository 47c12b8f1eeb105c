package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/scraper/internal/audio"
	"github.com/chaz8081/scraper/internal/config"
	"github.com/chaz8081/scraper/internal/sink"
	"github.com/chaz8081/scraper/internal/textmetrics"
	"github.com/chaz8081/scraper/internal/transcribe"
)

// minRecording is the shortest capture worth transcribing.
const minRecording = 300 * time.Millisecond

func newLanguagesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List languages with a speech model in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags)
			if err != nil {
				return err
			}

			transcoder := audio.NewTranscoder(cfg.Transcribe.FFmpegPath, cfg.Transcribe.SampleRate)
			langs, err := transcribe.NewSilero(cfg.Transcribe, transcoder, nil).Languages(cmd.Context())
			if err != nil {
				return err
			}
			for _, l := range langs {
				marker := " "
				if l == cfg.Transcribe.Language {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, l)
			}
			return nil
		},
	}
}

func newListenCmd(flags *globalFlags) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "listen [output]",
		Short: "Record from the microphone and transcribe the recording",
		Long: `listen captures audio from the default input device until Enter is
pressed (or --duration elapses), then transcribes it with the configured
backend. The text is printed and written to [output] when given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags)
			if err != nil {
				return err
			}
			output := ""
			if len(args) == 1 {
				output = args[0]
			}
			return runListen(cmd, cfg, duration, output)
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop recording after this long (default: wait for Enter)")
	return cmd
}

func runListen(cmd *cobra.Command, cfg *config.Config, duration time.Duration, output string) error {
	ctx := cmd.Context()

	tr, err := transcribe.New(cfg.Transcribe, os.Stderr)
	if err != nil {
		return err
	}
	defer tr.Close()

	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		return fmt.Errorf("%w (check microphone permissions)", err)
	}
	defer recorder.Close()

	recCtx, stopRec := context.WithCancel(ctx)
	defer stopRec()
	if duration > 0 {
		recCtx, stopRec = context.WithTimeout(recCtx, duration)
		defer stopRec()
		slog.Info("recording", "duration", duration)
	} else {
		stopOnEnter(cmd.InOrStdin(), stopRec)
		slog.Info("recording, press Enter to stop")
	}

	samples, err := recorder.Record(recCtx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	captured := time.Duration(float64(len(samples)) / float64(recorder.SampleRate()) * float64(time.Second))
	if captured < minRecording {
		return fmt.Errorf("recording too short (%s)", captured.Round(time.Millisecond))
	}
	slog.Info("captured audio, transcribing", "duration", captured.Round(100*time.Millisecond))

	workDir, err := os.MkdirTemp(cfg.Transcribe.WorkDir, "scraper-listen-*")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "recording.wav")
	if err := audio.WriteWAV(wavPath, samples, recorder.SampleRate()); err != nil {
		return err
	}

	start := time.Now()
	text, err := tr.Transcribe(ctx, wavPath)
	if err != nil {
		return err
	}
	slog.Info("transcribed", "elapsed", time.Since(start).Round(time.Millisecond))
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if output == "" {
		return nil
	}
	out, err := sink.Default.New(ctx, cfg.Output)
	if err != nil {
		return err
	}
	defer out.Close()
	return out.Write(ctx, output, text)
}

// stopOnEnter calls stop once a line (or EOF) is read from r. The returned
// channel closes after stop has run. A read from stdin cannot be
// interrupted, so when recording ends another way the goroutine stays
// blocked until the process exits; listen is one-shot, so nothing leaks
// past the command.
func stopOnEnter(r io.Reader, stop func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bufio.NewReader(r).ReadString('\n')
		stop()
	}()
	return done
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <reference> <hypothesis>",
		Short: "Compare extracted text against a reference transcript",
		Long: `score prints the word and character error rates of the hypothesis text
file against the reference text file. Case and punctuation are ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			hyp, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			wer := textmetrics.ComputeWER(string(ref), string(hyp))
			cer := textmetrics.ComputeCER(string(ref), string(hyp))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "WER %.3f (%d words: %d substituted, %d inserted, %d deleted)\n",
				wer.Rate, wer.RefTokens, wer.Substitutions, wer.Insertions, wer.Deletions)
			fmt.Fprintf(w, "CER %.3f (%d chars)\n", cer.Rate, cer.RefTokens)
			return nil
		},
	}
}
