package liststore

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/studiowebux/proxyview/internal/storage"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(string) (string, bool, error) { return "", false, f.getErr }
func (f failingKV) Set(string, string) error         { return f.setErr }
func (f failingKV) Close() error                     { return nil }

func TestAddDeduplicates(t *testing.T) {
	s := Load(storage.NewMemory(), HistoryKey, 20, nil)

	if changed, err := s.Add("u"); !changed || err != nil {
		t.Fatalf("Expected first add to change the list, got changed=%v err=%v", changed, err)
	}
	if changed, _ := s.Add("u"); changed {
		t.Error("Expected duplicate add to be a no-op")
	}

	if got := s.Items(); !reflect.DeepEqual(got, []string{"u"}) {
		t.Errorf("Expected [u], got %v", got)
	}
}

func TestAddDuplicateAnywhereKeepsPosition(t *testing.T) {
	s := Load(storage.NewMemory(), HistoryKey, 20, nil)
	s.Add("a")
	s.Add("b")
	s.Add("c")

	s.Add("a")

	want := []string{"c", "b", "a"}
	if got := s.Items(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddDropsOldestAtCapacity(t *testing.T) {
	s := Load(storage.NewMemory(), HistoryKey, 3, nil)
	for i := 1; i <= 4; i++ {
		s.Add(fmt.Sprintf("u%d", i))
	}

	want := []string{"u4", "u3", "u2"}
	if got := s.Items(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddPersists(t *testing.T) {
	kv := storage.NewMemory()
	s := Load(kv, BookmarkKey, 20, nil)
	s.Add("a")
	s.Add("b")

	raw, ok, _ := kv.Get(BookmarkKey)
	if !ok {
		t.Fatal("Expected list to be persisted")
	}
	if raw != `["b","a"]` {
		t.Errorf("Expected [\"b\",\"a\"], got %s", raw)
	}

	reloaded := Load(kv, BookmarkKey, 20, nil)
	if got := reloaded.Items(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Expected reload to keep order, got %v", got)
	}
}

func TestLoadMalformedIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"object", `{"a":1}`},
		{"numbers", `[1,2]`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			kv.Set(HistoryKey, tt.raw)

			s := Load(kv, HistoryKey, 20, nil)
			if s.Len() != 0 {
				t.Errorf("Expected empty list, got %v", s.Items())
			}
		})
	}
}

func TestLoadReadErrorIsEmpty(t *testing.T) {
	s := Load(failingKV{getErr: errors.New("disk gone")}, HistoryKey, 20, nil)
	if s.Len() != 0 {
		t.Errorf("Expected empty list, got %d items", s.Len())
	}
}

func TestLoadKeepsOversizedUntilMutation(t *testing.T) {
	kv := storage.NewMemory()
	kv.Set(HistoryKey, `["a","b","c","d"]`)

	s := Load(kv, HistoryKey, 2, nil)
	if s.Len() != 4 {
		t.Errorf("Expected 4 items at load, got %d", s.Len())
	}

	s.Add("e")
	if got := s.Items(); !reflect.DeepEqual(got, []string{"e", "a"}) {
		t.Errorf("Expected [e a], got %v", got)
	}
}

func TestAddReturnsPersistError(t *testing.T) {
	s := Load(failingKV{setErr: errors.New("read-only")}, HistoryKey, 20, nil)

	changed, err := s.Add("u")
	if err == nil {
		t.Error("Expected persistence error")
	}
	if !changed || !s.Contains("u") {
		t.Error("Expected in-memory list to keep the entry")
	}
}

func TestRemoveAndClear(t *testing.T) {
	kv := storage.NewMemory()
	s := Load(kv, BookmarkKey, 20, nil)
	s.Add("a")
	s.Add("b")

	if removed, _ := s.Remove("missing"); removed {
		t.Error("Expected removing a missing entry to be a no-op")
	}
	if removed, err := s.Remove("a"); !removed || err != nil {
		t.Fatalf("Expected removal, got removed=%v err=%v", removed, err)
	}
	if got := s.Items(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Expected [b], got %v", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	raw, _, _ := kv.Get(BookmarkKey)
	if raw != "[]" {
		t.Errorf("Expected [] persisted, got %s", raw)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := Load(storage.NewMemory(), HistoryKey, 20, nil)
	s.Add("a")

	items := s.Items()
	items[0] = "mutated"

	if v, _ := s.At(0); v != "a" {
		t.Errorf("Expected store to be unaffected, got %q", v)
	}
	if _, ok := s.At(5); ok {
		t.Error("Expected out of range At to report false")
	}
}
