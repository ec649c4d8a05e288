package tui

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/studiowebux/proxyview/internal/keybinds"
	"github.com/studiowebux/proxyview/internal/liststore"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/storage"
	"github.com/studiowebux/proxyview/internal/viewer"
)

// stubDoer answers every request with a fixed response
type stubDoer struct {
	mu          sync.Mutex
	contentType string
	body        string
	err         error
	requests    []pipeline.Descriptor
}

func (s *stubDoer) Do(_ context.Context, d pipeline.Descriptor) (*pipeline.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, d)
	if s.err != nil {
		return nil, s.err
	}
	return &pipeline.Response{
		StatusCode:  200,
		Status:      "200 OK",
		ContentType: s.contentType,
		Body:        io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

// CreateTestModel creates a Model backed by in-memory storage and doer.
// The browser launcher is replaced so tests never spawn processes.
func CreateTestModel(t *testing.T, doer pipeline.Doer) *Model {
	t.Helper()

	if doer == nil {
		doer = &stubDoer{contentType: "text/plain", body: "ok"}
	}

	kv := storage.NewMemory()
	ctrl := viewer.New(viewer.Options{
		Doer:          doer,
		History:       liststore.Load(kv, liststore.HistoryKey, 20, nil),
		Bookmarks:     liststore.Load(kv, liststore.BookmarkKey, 20, nil),
		ProxyTemplate: "https://corsproxy.io/?{url}",
	})

	m := New(ctrl, keybinds.NewDefaultRegistry(), nil)
	m.launchBrowser = func(string) error { return nil }
	m.width = 120
	m.height = 40
	m.updateLayout()

	return &m
}

// AssertModelField is a generic helper for checking model field values
func AssertModelField[T comparable](t *testing.T, fieldName string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}

// AssertNoError verifies that an error is nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

// AssertError verifies that an error occurred
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Error("Expected error but got nil")
	}
}
