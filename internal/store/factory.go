package store

import (
	"fmt"
	"log/slog"
)

// Backend identifies a Store implementation.
type Backend string

const (
	PostgresBackend Backend = "postgres"
	MemoryBackend   Backend = "memory"
)

func (b Backend) IsValid() bool {
	switch b {
	case PostgresBackend, MemoryBackend:
		return true
	}
	return false
}

// Open builds the configured Store implementation. The memory backend
// exists for tests and offline development; production runs Postgres.
func Open(backend Backend, databaseURL string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case PostgresBackend:
		s, err := NewPostgresStore(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		logger.Info("Initialized postgres store")
		return s, nil
	case MemoryBackend:
		logger.Info("Initialized memory store")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", backend)
	}
}
