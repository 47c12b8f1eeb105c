package transcribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaz8081/scraper/internal/config"
	"github.com/chaz8081/scraper/internal/models"
)

// wavConverter turns an arbitrary audio file into a model-ready WAV file
// inside workDir.
type wavConverter interface {
	ToWAV(ctx context.Context, input, workDir string) (string, error)
}

// Silero transcribes speech with a silero STT ONNX model downloaded fresh
// from the manifest on every run.
type Silero struct {
	cfg        config.TranscribeConfig
	client     *http.Client
	transcoder wavConverter
	progress   io.Writer
	openModel  func(path string) (inferenceSession, error)
}

// NewSilero creates a silero transcriber. Download progress is written to
// progress when it is non-nil.
func NewSilero(cfg config.TranscribeConfig, transcoder wavConverter, progress io.Writer) *Silero {
	return &Silero{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
		transcoder: transcoder,
		progress:   progress,
		openModel: func(path string) (inferenceSession, error) {
			return openONNXSession(cfg.ONNXRuntimeLib, path)
		},
	}
}

// Close is a no-op: every model artifact lives only for one Transcribe call.
func (s *Silero) Close() error {
	return nil
}

// Transcribe converts one audio file to text.
func (s *Silero) Transcribe(ctx context.Context, audioPath string) (string, error) {
	texts, err := s.TranscribeFiles(ctx, []string{audioPath})
	if err != nil {
		return "", err
	}
	return texts[0], nil
}

// TranscribeFiles converts audio files to text, one result per input in
// input order. Files are run through the model in batches of the
// configured batch size.
func (s *Silero) TranscribeFiles(ctx context.Context, audioPaths []string) ([]string, error) {
	if len(audioPaths) == 0 {
		return nil, nil
	}

	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "scraper-*")
	if err != nil {
		return nil, fmt.Errorf("transcribe: creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavs := make([]string, 0, len(audioPaths))
	for _, p := range audioPaths {
		wav, err := s.transcoder.ToWAV(ctx, p, workDir)
		if err != nil {
			return nil, fmt.Errorf("transcribe: %w", err)
		}
		wavs = append(wavs, wav)
	}

	entry, err := s.selectModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	decoder, err := s.fetchDecoder(ctx, entry, workDir)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	modelPath := filepath.Join(workDir, "model.onnx")
	slog.Info("downloading speech model", "language", s.cfg.Language, "url", entry.ONNX)
	n, err := models.Download(ctx, s.client, entry.ONNX, modelPath, s.progress)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	slog.Debug("speech model downloaded", "bytes", n)

	if err := models.VerifyDigest(modelPath, s.cfg.ModelDigest); err != nil {
		return nil, fmt.Errorf("transcribe: %w: %v", ErrInvalidModel, err)
	}

	session, err := s.openModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	defer session.Close()

	texts := make([]string, 0, len(wavs))
	for i, batch := range SplitIntoBatches(wavs, s.cfg.BatchSize) {
		decoded, err := s.runBatch(session, decoder, batch)
		if err != nil {
			return nil, fmt.Errorf("transcribe: batch %d: %w", i, err)
		}
		texts = append(texts, decoded...)
	}
	return texts, nil
}

// Languages returns the languages the manifest offers models for.
func (s *Silero) Languages(ctx context.Context) ([]string, error) {
	manifest, err := models.FetchManifest(ctx, s.client, s.cfg.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return manifest.Languages(), nil
}

// selectModel fetches the manifest and picks the configured language's
// model. An unknown language fails here, before anything is downloaded.
func (s *Silero) selectModel(ctx context.Context) (models.ModelEntry, error) {
	manifest, err := models.FetchManifest(ctx, s.client, s.cfg.ManifestURL)
	if err != nil {
		return models.ModelEntry{}, err
	}
	return manifest.Select(s.cfg.Language)
}

// fetchDecoder downloads the label set of entry and builds its decoder.
func (s *Silero) fetchDecoder(ctx context.Context, entry models.ModelEntry, workDir string) (*Decoder, error) {
	url := entry.LabelsURL()
	if url == "" {
		return nil, fmt.Errorf("manifest: language %q has no labels", s.cfg.Language)
	}

	path := filepath.Join(workDir, "labels.json")
	if _, err := models.Download(ctx, s.client, url, path, nil); err != nil {
		return nil, err
	}
	labels, err := models.LoadLabels(path)
	if err != nil {
		return nil, err
	}
	return NewDecoder(labels)
}

func (s *Silero) runBatch(session inferenceSession, decoder *Decoder, batch []string) ([]string, error) {
	clips, err := ReadBatch(batch, s.cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	input, width := PrepareModelInput(clips)
	slog.Debug("running inference", "batch", len(clips), "samples", width)

	logits, err := session.Run(input, len(clips), width)
	if err != nil {
		return nil, err
	}
	if logits.Batch != len(clips) {
		return nil, fmt.Errorf("model returned %d results for %d inputs", logits.Batch, len(clips))
	}
	if logits.Labels != decoder.NumLabels() {
		return nil, fmt.Errorf("model scores %d labels, label file has %d", logits.Labels, decoder.NumLabels())
	}

	texts := make([]string, len(clips))
	for i := range clips {
		text, err := decoder.Decode(logits.Row(i))
		if err != nil {
			return nil, err
		}
		texts[i] = strings.TrimSpace(text)
	}
	return texts, nil
}
