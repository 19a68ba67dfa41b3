package persist

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sadopc/actra/internal/config"
)

// Backend stores one serialized snapshot. Load returns "" when nothing has
// been saved yet.
type Backend interface {
	Save(ctx context.Context, payload string) error
	Load(ctx context.Context) (string, error)
	Close() error
}

// Open builds the backend selected by cfg.
func Open(cfg config.Storage, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		dir, name := filepath.Split(cfg.Path)
		return NewFileBackend(dir, name), nil
	case config.BackendSQLite:
		return NewSQLiteBackend(cfg.Path, cfg.KeepSnapshots)
	case config.BackendBadger:
		bc := DefaultBadgerConfig()
		bc.Path = cfg.Path
		bc.Logger = logger
		return OpenBadger(bc)
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("open storage: unknown backend %q", cfg.Backend)
	}
}
