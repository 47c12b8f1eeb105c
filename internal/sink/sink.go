// Package sink writes extracted text to its destination.
//
// Backends register a factory under a name ("file", "s3") and are selected
// with output.sink in the config.
package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chaz8081/scraper/internal/config"
)

// Sink stores one text document per call.
type Sink interface {
	// Write stores text under name. For the file sink name is the
	// destination path; other sinks derive a key from its base name.
	Write(ctx context.Context, name, text string) error
	Close() error
}

// Factory creates a Sink from the output config.
type Factory func(ctx context.Context, cfg config.OutputConfig) (Sink, error)

// Registry is a thread-safe set of named sink factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Panics if the name is already taken.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("sink: %q already registered", name))
	}
	r.factories[name] = f
}

// New creates the sink named by cfg.Sink.
func (r *Registry) New(ctx context.Context, cfg config.OutputConfig) (Sink, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Sink]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sink: unknown sink %q (available: %v)", cfg.Sink, r.Available())
	}
	return f(ctx, cfg)
}

// Available returns the sorted registered sink names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default holds the built-in sinks.
var Default = NewRegistry()

func init() {
	Default.Register("file", func(context.Context, config.OutputConfig) (Sink, error) {
		return NewFile(), nil
	})
	Default.Register("s3", func(ctx context.Context, cfg config.OutputConfig) (Sink, error) {
		return NewS3(ctx, cfg.S3)
	})
}
