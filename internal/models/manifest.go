// Package models fetches the speech model manifest and the model artifacts
// it references.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrLanguageUnavailable is returned when the manifest has no model for the
// requested language.
var ErrLanguageUnavailable = errors.New("language not available in manifest")

// latestVersion is the manifest version key used for every language.
const latestVersion = "latest"

// Manifest is the subset of the silero models.yml file used here.
// Other top-level sections (tts_models, te_models, ...) are ignored.
type Manifest struct {
	STTModels map[string]map[string]ModelEntry `yaml:"stt_models"`
}

// ModelEntry describes one model version for one language.
type ModelEntry struct {
	Meta    ModelMeta `yaml:"meta"`
	Package string    `yaml:"package"`
	JIT     string    `yaml:"jit"`
	ONNX    string    `yaml:"onnx"`
	Labels  string    `yaml:"labels"`
}

// ModelMeta holds descriptive fields of a model entry.
type ModelMeta struct {
	Name   string `yaml:"name"`
	Sample string `yaml:"sample"`
	Labels string `yaml:"labels"`
}

// LabelsURL returns the label file URL, which older manifests keep under meta.
func (e ModelEntry) LabelsURL() string {
	if e.Labels != "" {
		return e.Labels
	}
	return e.Meta.Labels
}

// ParseManifest decodes a models.yml document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.STTModels) == 0 {
		return nil, fmt.Errorf("parsing manifest: no stt_models section")
	}
	return &m, nil
}

// FetchManifest downloads and parses the manifest at url.
func FetchManifest(ctx context.Context, client *http.Client, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching manifest: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// Languages returns the languages that have speech-to-text models, sorted.
func (m *Manifest) Languages() []string {
	langs := make([]string, 0, len(m.STTModels))
	for lang := range m.STTModels {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Select returns the latest model entry for lang.
func (m *Manifest) Select(lang string) (ModelEntry, error) {
	versions, ok := m.STTModels[lang]
	if !ok {
		return ModelEntry{}, fmt.Errorf("%w: %q (available: %v)", ErrLanguageUnavailable, lang, m.Languages())
	}
	entry, ok := versions[latestVersion]
	if !ok {
		return ModelEntry{}, fmt.Errorf("manifest: language %q has no %q model", lang, latestVersion)
	}
	if entry.ONNX == "" {
		return ModelEntry{}, fmt.Errorf("manifest: language %q has no onnx model", lang)
	}
	return entry, nil
}
