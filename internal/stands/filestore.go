package stands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every airport's stands in one JSON document keyed by ICAO code
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a JSON file backed store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the whole file. A missing file is an empty directory.
func (f *FileStore) Load(ctx context.Context) (map[string][]Stand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) read() (map[string][]Stand, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]Stand{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stands file: %w", err)
	}

	all := make(map[string][]Stand)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse stands file: %w", err)
	}
	return all, nil
}

// Save replaces one airport's list and rewrites the file atomically
func (f *FileStore) Save(ctx context.Context, icao string, list []Stand) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	all[Normalize(icao)] = list

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stands: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create stands directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".stands-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace stands file: %w", err)
	}
	return nil
}
