// Package recent persists the list of recently submitted search queries.
package recent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store loads and saves the recent-query list, most recent first
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, queries []string) error
}

// Open returns the store for backend: "sqlite", "file" or "memory".
// The returned close function is never nil.
func Open(ctx context.Context, backend, path string, fs afero.Fs) (Store, func() error, error) {
	noop := func() error { return nil }

	switch backend {
	case "sqlite":
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, noop, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "file":
		return NewFileStore(fs, path), noop, nil
	case "memory", "":
		return NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown recent backend %q", backend)
	}
}
