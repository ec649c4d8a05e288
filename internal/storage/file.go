package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/studiowebux/proxyview/internal/config"
)

// File keeps all pairs in one JSON object file, rewritten on every Set
type File struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// NewFile loads path if it exists. A file that is not a JSON object of
// strings is treated as empty and overwritten on the next Set.
func NewFile(path string) (*File, error) {
	f := &File{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err == nil && values != nil {
		f.values = values
	}

	return f, nil
}

// Get returns the value stored under key
func (f *File) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.values[key]
	return value, ok, nil
}

// Set stores value and rewrites the file
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value

	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), config.DirPermissions); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}

	return nil
}

// Close is a no-op; every Set is already on disk
func (f *File) Close() error {
	return nil
}
