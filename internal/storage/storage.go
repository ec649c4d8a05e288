// Package storage provides the durable key-value store behind the history
// and bookmark lists. It plays the role the browser's localStorage plays for a
// web page: string keys, string values, synchronous writes.
package storage

import (
	"fmt"

	"github.com/studiowebux/proxyview/internal/config"
)

// KV is a durable string key-value store
type KV interface {
	// Get returns the stored value and whether the key exists
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value
	Set(key, value string) error
	// Close releases the underlying resources
	Close() error
}

// Open creates the backend named by settings.Storage
func Open(settings config.Settings) (KV, error) {
	switch settings.Storage {
	case config.StorageSQLite, "":
		return NewSQLite(config.DatabasePath)
	case config.StorageFile:
		return NewFile(config.StoragePath)
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.Storage)
	}
}
