// Package transcribe provides speech-to-text backends.
//
// Supported backends:
//   - silero: silero STT ONNX models run locally with ONNX Runtime (default)
//   - openai: an OpenAI-compatible transcription API
package transcribe

import (
	"context"
	"fmt"
	"io"

	"github.com/chaz8081/scraper/internal/audio"
	"github.com/chaz8081/scraper/internal/config"
)

// Transcriber converts an audio file to text.
type Transcriber interface {
	// Transcribe returns the text spoken in the audio file at audioPath.
	Transcribe(ctx context.Context, audioPath string) (string, error)
	// Close releases backend resources.
	Close() error
}

// New creates a Transcriber based on the config backend setting.
func New(cfg config.TranscribeConfig, progress io.Writer) (Transcriber, error) {
	transcoder := audio.NewTranscoder(cfg.FFmpegPath, cfg.SampleRate)

	switch cfg.Backend {
	case "silero", "":
		return NewSilero(cfg, transcoder, progress), nil
	case "openai":
		return NewOpenAI(cfg, transcoder)
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: silero, openai)", cfg.Backend)
	}
}
