// Package liststore keeps a bounded, newest-first list of unique URLs backed
// by a key in durable storage.
package liststore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/studiowebux/proxyview/internal/logging"
	"github.com/studiowebux/proxyview/internal/storage"
	"go.uber.org/zap"
)

// Storage keys for the two lists
const (
	HistoryKey  = "proxyHistory"
	BookmarkKey = "proxyBookmarks"
)

// Store is an ordered sequence of unique strings: index 0 is the newest entry
type Store struct {
	mu    sync.RWMutex
	kv    storage.KV
	key   string
	cap   int
	items []string
}

// Load seeds a store from kv. Missing, unreadable or malformed content yields
// an empty list; the problem is logged, never returned. Content longer than
// capacity is kept as-is until the next mutation.
func Load(kv storage.KV, key string, capacity int, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	if capacity < 1 {
		capacity = 1
	}

	s := &Store{kv: kv, key: key, cap: capacity, items: []string{}}

	raw, ok, err := kv.Get(key)
	if err != nil {
		logger.Warn("failed to read list, starting empty", zap.String("key", key), zap.Error(err))
		return s
	}
	if !ok {
		return s
	}

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("malformed list in storage, starting empty", zap.String("key", key), zap.Error(err))
		return s
	}
	if items != nil {
		s.items = items
	}

	return s
}

// Add inserts value at the front unless it is already present anywhere in the
// list. The oldest entry is dropped past capacity. changed reports whether
// the list was modified; err is a persistence failure, in which case the
// in-memory list still holds the new entry.
func (s *Store) Add(value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(value) >= 0 {
		return false, nil
	}

	items := make([]string, 0, len(s.items)+1)
	items = append(items, value)
	items = append(items, s.items...)
	if len(items) > s.cap {
		items = items[:s.cap]
	}
	s.items = items

	return true, s.persist()
}

// Remove deletes value if present
func (s *Store) Remove(value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(value)
	if i < 0 {
		return false, nil
	}

	items := make([]string, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	s.items = s.truncated(items)

	return true, s.persist()
}

// Clear empties the list
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []string{}
	return s.persist()
}

// Items returns a copy of the list, newest first
func (s *Store) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// At returns the entry at index i
func (s *Store) At(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.items) {
		return "", false
	}
	return s.items[i], true
}

// Contains reports whether value is in the list
func (s *Store) Contains(value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(value) >= 0
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Cap() int {
	return s.cap
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) indexOf(value string) int {
	for i, item := range s.items {
		if item == value {
			return i
		}
	}
	return -1
}

func (s *Store) truncated(items []string) []string {
	if len(items) > s.cap {
		return items[:s.cap]
	}
	return items
}

// persist writes the whole list; callers hold the lock
func (s *Store) persist() error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.key, err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.key, err)
	}
	return nil
}
