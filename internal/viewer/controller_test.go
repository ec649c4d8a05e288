package viewer

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/studiowebux/proxyview/internal/liststore"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/render"
	"github.com/studiowebux/proxyview/internal/storage"
)

type stubDoer struct {
	contentType string
	body        string
	err         error
	last        pipeline.Descriptor
}

func (s *stubDoer) Do(_ context.Context, d pipeline.Descriptor) (*pipeline.Response, error) {
	s.last = d
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

// blockingDoer waits until its context is cancelled or release is closed
type blockingDoer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingDoer) Do(ctx context.Context, d pipeline.Descriptor) (*pipeline.Response, error) {
	close(b.started)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return &pipeline.Response{StatusCode: 200, ContentType: "text/plain", Body: io.NopCloser(strings.NewReader("old"))}, nil
	}
}

func newController(t *testing.T, doer pipeline.Doer) (*Controller, storage.KV) {
	t.Helper()
	kv := storage.NewMemory()
	c := New(Options{
		Doer:          doer,
		History:       liststore.Load(kv, liststore.HistoryKey, 20, nil),
		Bookmarks:     liststore.Load(kv, liststore.BookmarkKey, 20, nil),
		ProxyTemplate: "https://corsproxy.io/?{url}",
	})
	return c, kv
}

func TestBeginShowsPlaceholderAndRecordsHistory(t *testing.T) {
	c, kv := newController(t, &stubDoer{})

	sub := c.Begin(Form{URL: "https://example.com", Method: "GET"})

	snap := c.Snapshot()
	if snap.State != StateSubmitted {
		t.Errorf("Expected state %s, got %s", StateSubmitted, snap.State)
	}
	if snap.Display.Text != LoadingText || snap.Display.FrameVisible {
		t.Errorf("Expected loading placeholder with hidden frame, got %+v", snap.Display)
	}
	if sub.Descriptor.ProxiedURL != "https://corsproxy.io/?https%3A%2F%2Fexample.com" {
		t.Errorf("Unexpected proxied URL: %s", sub.Descriptor.ProxiedURL)
	}
	if sub.ID == "" {
		t.Error("Expected submission id")
	}

	raw, _, _ := kv.Get(liststore.HistoryKey)
	if raw != `["https://example.com"]` {
		t.Errorf("Expected history persisted, got %s", raw)
	}
}

func TestSubmitRendersPrettyJSON(t *testing.T) {
	doer := &stubDoer{contentType: "application/json", body: `{"a":1}`}
	c, _ := newController(t, doer)

	result := c.Submit(context.Background(), Form{URL: "https://api", Method: "GET"})
	if result.Err != nil {
		t.Fatalf("Submit failed: %v", result.Err)
	}

	snap := c.Snapshot()
	if snap.State != StateRendered {
		t.Errorf("Expected rendered, got %s", snap.State)
	}
	if snap.Display.Text != "{\n  \"a\": 1\n}" {
		t.Errorf("Unexpected display: %q", snap.Display.Text)
	}
	if snap.LastMeta == nil || snap.LastMeta.StatusCode != 200 {
		t.Errorf("Expected meta with status 200, got %+v", snap.LastMeta)
	}
}

func TestSubmitForceFrameOverridesJSON(t *testing.T) {
	doer := &stubDoer{contentType: "application/json", body: `{"a":1}`}
	c, _ := newController(t, doer)

	c.Submit(context.Background(), Form{URL: "https://api", Toggles: render.Toggles{ForceFrame: true}})

	d := c.Snapshot().Display
	if !d.FrameVisible || d.Text != "" {
		t.Errorf("Expected frame display, got %+v", d)
	}
	if d.FrameURL != "https://corsproxy.io/?https%3A%2F%2Fapi" {
		t.Errorf("Unexpected frame URL %s", d.FrameURL)
	}
}

func TestSubmitNetworkError(t *testing.T) {
	c, _ := newController(t, &stubDoer{err: errors.New("Network Error")})

	c.Submit(context.Background(), Form{URL: "https://down", Method: "GET"})

	snap := c.Snapshot()
	if snap.State != StateFailed {
		t.Errorf("Expected failed, got %s", snap.State)
	}
	if !strings.Contains(snap.Display.Text, "Network Error") {
		t.Errorf("Expected display to contain the error, got %q", snap.Display.Text)
	}
	if !strings.HasPrefix(snap.Display.Text, ErrorPrefix) {
		t.Errorf("Expected %q prefix, got %q", ErrorPrefix, snap.Display.Text)
	}
	if snap.Display.FrameVisible {
		t.Error("Expected frame hidden on failure")
	}
	if len(snap.History) != 1 {
		t.Errorf("Expected history recorded even on failure, got %v", snap.History)
	}
}

func TestSubmitBodyOnlyForPostAndPut(t *testing.T) {
	doer := &stubDoer{contentType: "text/plain"}
	c, _ := newController(t, doer)

	c.Submit(context.Background(), Form{URL: "u", Method: "GET", Body: "data"})
	if doer.last.HasBody {
		t.Error("Expected GET without body")
	}

	c.Submit(context.Background(), Form{URL: "u", Method: "POST", Body: "data"})
	if !doer.last.HasBody || doer.last.Body != "data" {
		t.Errorf("Expected POST body verbatim, got %+v", doer.last)
	}
}

func TestStaleResultIsDropped(t *testing.T) {
	doer := &stubDoer{contentType: "text/plain", body: "new"}
	c, _ := newController(t, doer)

	old := c.Begin(Form{URL: "https://old"})
	oldResult := c.Await(context.Background(), old)

	newer := c.Begin(Form{URL: "https://new"})
	if !c.Complete(c.Await(context.Background(), newer)) {
		t.Fatal("Expected current result to be applied")
	}

	if c.Complete(oldResult) {
		t.Error("Expected stale result to be dropped")
	}
	if got := c.Snapshot().Display.Text; got != "new" {
		t.Errorf("Expected newer display to survive, got %q", got)
	}
}

func TestNewerSubmissionCancelsInFlight(t *testing.T) {
	blocking := &blockingDoer{started: make(chan struct{}), release: make(chan struct{})}
	c, _ := newController(t, blocking)

	old := c.Begin(Form{URL: "https://slow"})
	done := make(chan Result)
	go func() { done <- c.Await(context.Background(), old) }()
	<-blocking.started

	c.doer = &stubDoer{contentType: "text/plain", body: "fresh"}
	c.Submit(context.Background(), Form{URL: "https://fast"})

	oldResult := <-done
	if !oldResult.Superseded {
		t.Errorf("Expected superseded result, got err=%v", oldResult.Err)
	}
	if c.Complete(oldResult) {
		t.Error("Expected superseded result to be dropped")
	}

	snap := c.Snapshot()
	if snap.State != StateRendered || snap.Display.Text != "fresh" {
		t.Errorf("Expected fresh render, got %s %q", snap.State, snap.Display.Text)
	}
}

func TestResetInvalidatesAndClears(t *testing.T) {
	doer := &stubDoer{contentType: "text/plain", body: "late"}
	c, _ := newController(t, doer)

	sub := c.Begin(Form{URL: "https://x", Method: "POST", Headers: "A: 1", Body: "b", Toggles: render.Toggles{ForceRaw: true}})
	result := c.Await(context.Background(), sub)
	c.Bookmark("https://x")

	c.Reset()

	if c.Complete(result) {
		t.Error("Expected result after reset to be dropped")
	}

	snap := c.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("Expected idle, got %s", snap.State)
	}
	if snap.Form.URL != "" || snap.Form.Headers != "" || snap.Form.Body != "" {
		t.Errorf("Expected cleared fields, got %+v", snap.Form)
	}
	if snap.Form.Method != "POST" || !snap.Form.Toggles.ForceRaw {
		t.Errorf("Expected method and toggles kept, got %+v", snap.Form)
	}
	if snap.Display != (Display{}) {
		t.Errorf("Expected empty display, got %+v", snap.Display)
	}
	if len(snap.History) != 1 || len(snap.Bookmarks) != 1 {
		t.Errorf("Expected lists untouched, got history=%v bookmarks=%v", snap.History, snap.Bookmarks)
	}
}

func TestBookmark(t *testing.T) {
	c, _ := newController(t, &stubDoer{})

	if added, _ := c.Bookmark(""); added {
		t.Error("Expected empty URL to be ignored")
	}
	if added, _ := c.Bookmark("https://a"); !added {
		t.Error("Expected bookmark to be added")
	}
	if added, _ := c.Bookmark("https://a"); added {
		t.Error("Expected duplicate bookmark to be ignored")
	}
	c.Bookmark("https://b")

	want := []string{"https://b", "https://a"}
	if got := c.Snapshot().Bookmarks; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSelectCopiesIntoURLField(t *testing.T) {
	c, _ := newController(t, &stubDoer{contentType: "text/plain"})
	c.Submit(context.Background(), Form{URL: "https://one"})
	c.Submit(context.Background(), Form{URL: "https://two"})
	c.Bookmark("https://mark")

	if url, ok := c.SelectHistory(1); !ok || url != "https://one" {
		t.Errorf("Expected https://one, got %q", url)
	}
	if c.Form().URL != "https://one" {
		t.Errorf("Expected URL field updated, got %q", c.Form().URL)
	}

	c.SelectBookmark(0)
	if c.Form().URL != "https://mark" {
		t.Errorf("Expected bookmark in URL field, got %q", c.Form().URL)
	}

	if _, ok := c.SelectHistory(9); ok {
		t.Error("Expected out of range selection to fail")
	}
}

func TestSetProxyTemplate(t *testing.T) {
	doer := &stubDoer{contentType: "text/plain", body: "ok"}
	c, _ := newController(t, doer)

	c.SetProxyTemplate("http://127.0.0.1:8787/proxy?url={url}")
	sub := c.Begin(Form{URL: "https://example.com", Method: "GET"})
	if sub.Descriptor.ProxiedURL != "http://127.0.0.1:8787/proxy?url=https%3A%2F%2Fexample.com" {
		t.Errorf("Unexpected proxied URL: %s", sub.Descriptor.ProxiedURL)
	}

	c.SetProxyTemplate("")
	if got := c.ProxyTemplate(); got != "https://corsproxy.io/?{url}" {
		t.Errorf("Expected default template, got %s", got)
	}
}
