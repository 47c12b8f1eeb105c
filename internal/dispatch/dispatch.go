// Package dispatch routes an input file to the text extractor for its
// format and stores the result.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaz8081/scraper/internal/sink"
)

var (
	// ErrUnsupported is returned for inputs whose extension has no extractor.
	ErrUnsupported = errors.New("unsupported file extension")
	// ErrOutputIsInput is returned when the output would replace the input.
	ErrOutputIsInput = errors.New("output path is the input file")
)

// Kind is the broad format of an input file.
type Kind int

const (
	KindPDF Kind = iota + 1
	KindImage
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// extensions maps a recognised extension (without the dot) to its Kind.
// Matching is exact: "PDF" or "Png" are not recognised.
var extensions = map[string]Kind{
	"pdf":  KindPDF,
	"png":  KindImage,
	"jpg":  KindImage,
	"webm": KindAudio,
	"weba": KindAudio,
}

// KindOf classifies path by the text after its final dot.
func KindOf(path string) (Kind, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, false
	}
	k, ok := extensions[ext[1:]]
	return k, ok
}

// Extractor turns an input file into text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract calls f(ctx, path).
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Dispatcher runs the extractor registered for an input's kind and
// writes its text to a sink.
type Dispatcher struct {
	handlers map[Kind]Extractor
	sink     sink.Sink
}

// New creates a Dispatcher writing to out.
func New(handlers map[Kind]Extractor, out sink.Sink) *Dispatcher {
	return &Dispatcher{handlers: handlers, sink: out}
}

// Run extracts the text of input and writes it to output. An unsupported
// extension fails with ErrUnsupported and an output naming the input fails
// with ErrOutputIsInput, both before anything is written.
func (d *Dispatcher) Run(ctx context.Context, input, output string) error {
	kind, ok := KindOf(input)
	if !ok {
		return fmt.Errorf("dispatch: %s: %w", input, ErrUnsupported)
	}
	if samePath(input, output) {
		return fmt.Errorf("dispatch: %s: %w", output, ErrOutputIsInput)
	}

	h, ok := d.handlers[kind]
	if !ok || h == nil {
		return fmt.Errorf("dispatch: no extractor registered for %s input", kind)
	}

	start := time.Now()
	slog.Info("extracting", "input", input, "kind", kind)
	text, err := h.Extract(ctx, input)
	if err != nil {
		return fmt.Errorf("dispatch: %s: %w", kind, err)
	}
	slog.Info("extracted", "chars", len(text), "elapsed", time.Since(start).Round(time.Millisecond))

	if err := d.sink.Write(ctx, output, text); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	slog.Info("output written", "output", output)
	return nil
}

// OutputPath picks the output location for input. An explicit path wins;
// otherwise the input's stem plus suffix is placed in dir, or next to the
// input when dir is empty.
func OutputPath(input, explicit, dir, suffix string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + suffix
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// samePath reports whether a and b name the same file, comparing cleaned
// absolute paths and, when both exist, the files themselves.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
