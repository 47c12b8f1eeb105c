package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/chaz8081/scraper/internal/config"
)

func TestNewOpenAIRequiresKeyOrBaseURL(t *testing.T) {
	cfg := config.Default().Transcribe
	cfg.Backend = "openai"

	if _, err := NewOpenAI(cfg, &copyConverter{}); err == nil {
		t.Error("NewOpenAI() without key or base URL should fail")
	}

	cfg.OpenAI.BaseURL = "http://localhost:8000/v1/"
	if _, err := NewOpenAI(cfg, &copyConverter{}); err != nil {
		t.Errorf("NewOpenAI() with base URL error = %v", err)
	}
}

func TestOpenAITranscribe(t *testing.T) {
	var gotModel, gotLanguage, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		if _, hdr, err := r.FormFile("file"); err == nil {
			gotFile = hdr.Filename
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": " hello world \n"})
	}))
	defer srv.Close()

	cfg := config.Default().Transcribe
	cfg.Backend = "openai"
	cfg.Language = "de"
	cfg.WorkDir = t.TempDir()
	cfg.OpenAI.BaseURL = srv.URL + "/"
	cfg.OpenAI.APIKey = "test-key"

	o, err := NewOpenAI(cfg, &copyConverter{})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	defer o.Close()

	input := writeSpeech(t, t.TempDir(), "note.wav", 1600)
	text, err := o.Transcribe(context.Background(), input)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if text != "hello world" {
		t.Errorf("Transcribe() = %q, want %q", text, "hello world")
	}
	if gotModel != "whisper-1" {
		t.Errorf("model = %q, want %q", gotModel, "whisper-1")
	}
	if gotLanguage != "de" {
		t.Errorf("language = %q, want %q", gotLanguage, "de")
	}
	if filepath.Ext(gotFile) != ".wav" {
		t.Errorf("uploaded file = %q, want a .wav file", gotFile)
	}
}

func TestOpenAITranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad audio"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := config.Default().Transcribe
	cfg.Backend = "openai"
	cfg.WorkDir = t.TempDir()
	cfg.OpenAI.BaseURL = srv.URL + "/"

	o, err := NewOpenAI(cfg, &copyConverter{})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}

	input := writeSpeech(t, t.TempDir(), "note.wav", 1600)
	if _, err := o.Transcribe(context.Background(), input); err == nil {
		t.Error("Transcribe() should fail on a 400 response")
	}
}
