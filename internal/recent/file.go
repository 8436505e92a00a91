package recent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

type fileContents struct {
	Queries []string `toml:"queries"`
}

// FileStore keeps the recent-query list in a small TOML file
type FileStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// Load returns an empty list when the file does not exist yet
func (s *FileStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var contents fileContents
	if err := toml.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return contents.Queries, nil
}

// Save writes to a temporary file and renames it over the old one
func (s *FileStore) Save(_ context.Context, queries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(fileContents{Queries: queries})
	if err != nil {
		return fmt.Errorf("failed to marshal recent queries: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
