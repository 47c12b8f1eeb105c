package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File writes each document to a local path, replacing it atomically.
type File struct{}

// NewFile returns a file sink.
func NewFile() *File {
	return &File{}
}

// Write stores text at path. The text goes to a temp file in the same
// directory which is synced and renamed over path, so readers never see
// a partial document.
func (f *File) Write(ctx context.Context, path, text string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("sink: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(text); err != nil {
		return fmt.Errorf("sink: write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sink: sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("sink: close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("sink: chmod %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("sink: rename to %s: %w", path, err)
	}
	return nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}
