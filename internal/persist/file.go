package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultFileName = "actra.json"

// FileBackend keeps the snapshot in a single JSON file.
type FileBackend struct {
	Dir  string
	Name string
}

func NewFileBackend(dir, name string) *FileBackend {
	if name == "" {
		name = defaultFileName
	}
	if dir == "" {
		dir = "."
	}
	return &FileBackend{Dir: dir, Name: name}
}

func (b *FileBackend) Path() string {
	return filepath.Join(b.Dir, b.Name)
}

// Load creates the directory and an empty file on first use.
func (b *FileBackend) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(b.Path())
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(b.Dir, 0o755); err != nil {
			return "", fmt.Errorf("create store directory: %w", err)
		}
		if err := os.WriteFile(b.Path(), nil, 0o644); err != nil {
			return "", fmt.Errorf("create store file: %w", err)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read store file: %w", err)
	}
	return string(data), nil
}

// Save writes through a temp file and renames it over the old snapshot.
func (b *FileBackend) Save(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(b.Dir, b.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.Path()); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
