package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/chaz8081/scraper/internal/config"
)

// OpenAI transcribes speech through an OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAI struct {
	client     openai.Client
	model      string
	language   string
	workDir    string
	transcoder wavConverter
}

// NewOpenAI creates an OpenAI transcriber. An API key is required unless a
// custom base URL points at a local server.
func NewOpenAI(cfg config.TranscribeConfig, transcoder wavConverter) (*OpenAI, error) {
	if cfg.OpenAI.APIKey == "" && cfg.OpenAI.BaseURL == "" {
		return nil, fmt.Errorf("transcribe: OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.OpenAI.APIKey))
	} else {
		// Local servers ignore the key but the client requires one.
		opts = append(opts, option.WithAPIKey("dummy"))
	}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.HTTPTimeout))
	}

	return &OpenAI{
		client:     openai.NewClient(opts...),
		model:      cfg.OpenAI.Model,
		language:   cfg.Language,
		workDir:    cfg.WorkDir,
		transcoder: transcoder,
	}, nil
}

// Close is a no-op; the HTTP client holds no per-call resources.
func (o *OpenAI) Close() error {
	return nil
}

// Transcribe transcodes audioPath to WAV and uploads it for transcription.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	workDir, err := os.MkdirTemp(o.workDir, "scraper-*")
	if err != nil {
		return "", fmt.Errorf("transcribe: creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath, err := o.transcoder.ToWAV(ctx, audioPath, workDir)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: open %s: %w", wavPath, err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(o.model),
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe: openai request: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
