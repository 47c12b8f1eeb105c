package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultManifestURL lists the silero speech-to-text models per language.
const DefaultManifestURL = "https://raw.githubusercontent.com/snakers4/silero-models/master/models.yml"

// Config holds all application configuration.
type Config struct {
	Output     OutputConfig     `yaml:"output"`
	PDF        PDFConfig        `yaml:"pdf"`
	OCR        OCRConfig        `yaml:"ocr"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Audio      AudioConfig      `yaml:"audio"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"`
}

// OutputConfig controls where extracted text is written.
type OutputConfig struct {
	Sink   string   `yaml:"sink"` // "file" or "s3"
	Dir    string   `yaml:"dir"`  // empty: next to the input file
	Suffix string   `yaml:"suffix"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds settings for the s3 output sink.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"` // custom endpoint for MinIO
}

// PDFConfig holds PDF extraction settings.
type PDFConfig struct {
	PageSeparator string `yaml:"page_separator"`
}

// OCRConfig holds Tesseract settings.
type OCRConfig struct {
	Languages []string          `yaml:"languages"`
	DPI       int               `yaml:"dpi"`
	PSM       int               `yaml:"psm"`   // 0 keeps the tesseract default
	Scale     float64           `yaml:"scale"` // upscale factor applied before OCR
	Variables map[string]string `yaml:"variables"`
}

// TranscribeConfig holds speech-to-text settings.
type TranscribeConfig struct {
	Backend        string        `yaml:"backend"` // "silero" or "openai"
	Language       string        `yaml:"language"`
	ManifestURL    string        `yaml:"manifest_url"`
	BatchSize      int           `yaml:"batch_size"`
	SampleRate     int           `yaml:"sample_rate"`
	FFmpegPath     string        `yaml:"ffmpeg_path"`
	ONNXRuntimeLib string        `yaml:"onnxruntime_lib"`
	ModelDigest    string        `yaml:"model_digest"` // optional BLAKE2b-256 hex pin
	WorkDir        string        `yaml:"work_dir"`     // parent for per-run temp dirs
	HTTPTimeout    time.Duration `yaml:"http_timeout"` // 0 means no timeout
	OpenAI         OpenAIConfig  `yaml:"openai"`
}

// OpenAIConfig holds settings for the OpenAI-compatible transcription backend.
type OpenAIConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"` // from OPENAI_API_KEY only
}

// AudioConfig holds microphone capture settings for the listen command.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scraper")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Sink:   "file",
			Suffix: ".txt",
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
			Scale:     1,
		},
		Transcribe: TranscribeConfig{
			Backend:     "silero",
			Language:    "en",
			ManifestURL: DefaultManifestURL,
			BatchSize:   10,
			SampleRate:  16000,
			FFmpegPath:  "ffmpeg",
			OpenAI: OpenAIConfig{
				Model: "whisper-1",
			},
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in path fields is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Output.Dir = expandTilde(cfg.Output.Dir)
	cfg.Transcribe.FFmpegPath = expandTilde(cfg.Transcribe.FFmpegPath)
	cfg.Transcribe.ONNXRuntimeLib = expandTilde(cfg.Transcribe.ONNXRuntimeLib)
	cfg.Transcribe.WorkDir = expandTilde(cfg.Transcribe.WorkDir)

	return cfg, nil
}

// ApplyEnv fills settings that come from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Transcribe.OpenAI.APIKey = v
	}
	if v := os.Getenv("SCRAPER_ONNXRUNTIME_LIB"); v != "" {
		c.Transcribe.ONNXRuntimeLib = v
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Output.Sink {
	case "file":
	case "s3":
		if c.Output.S3.Bucket == "" {
			return fmt.Errorf("output.s3.bucket must not be empty when output.sink is \"s3\"")
		}
	default:
		return fmt.Errorf("output.sink must be \"file\" or \"s3\", got %q", c.Output.Sink)
	}

	if !strings.HasPrefix(c.Output.Suffix, ".") {
		return fmt.Errorf("output.suffix must start with \".\", got %q", c.Output.Suffix)
	}

	if len(c.OCR.Languages) == 0 {
		return fmt.Errorf("ocr.languages must not be empty")
	}
	if c.OCR.Scale < 1 {
		return fmt.Errorf("ocr.scale must be >= 1, got %g", c.OCR.Scale)
	}
	if c.OCR.DPI < 0 {
		return fmt.Errorf("ocr.dpi must be >= 0")
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return fmt.Errorf("ocr.psm must be between 0 and 13, got %d", c.OCR.PSM)
	}

	switch c.Transcribe.Backend {
	case "silero":
		if c.Transcribe.ManifestURL == "" {
			return fmt.Errorf("transcribe.manifest_url must not be empty")
		}
	case "openai":
		if c.Transcribe.OpenAI.Model == "" {
			return fmt.Errorf("transcribe.openai.model must not be empty")
		}
	default:
		return fmt.Errorf("transcribe.backend must be \"silero\" or \"openai\", got %q", c.Transcribe.Backend)
	}

	if c.Transcribe.Language == "" {
		return fmt.Errorf("transcribe.language must not be empty")
	}
	if c.Transcribe.BatchSize <= 0 {
		return fmt.Errorf("transcribe.batch_size must be > 0")
	}
	if c.Transcribe.SampleRate <= 0 {
		return fmt.Errorf("transcribe.sample_rate must be > 0")
	}
	if c.Transcribe.FFmpegPath == "" {
		return fmt.Errorf("transcribe.ffmpeg_path must not be empty")
	}
	if c.Transcribe.HTTPTimeout < 0 {
		return fmt.Errorf("transcribe.http_timeout must be >= 0")
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}
	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}

	return nil
}

// WriteDefault writes the default configuration to DefaultConfigPath,
// creating the directory if needed. An existing file is left untouched.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// ParseLogLevel maps a config log level to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
