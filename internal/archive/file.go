package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes exports to a local path. Each write lands in a
// temporary file first and is renamed into place, so readers never observe a
// half-written export.
type FileDestination struct {
	path string
}

func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

func (d *FileDestination) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	tmp, err := os.CreateTemp(dir, ".trail-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}
	return nil
}
