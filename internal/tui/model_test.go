package tui

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/proxyview/internal/viewer"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key through Update and returns the resulting command
func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

// finish runs a submission command and feeds its message back
func finish(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a submission command")
	}
	msg, ok := cmd().(submissionDoneMsg)
	if !ok {
		t.Fatal("Expected submissionDoneMsg")
	}
	m.Update(msg)
}

func TestNew_InitializesDefaultState(t *testing.T) {
	m := CreateTestModel(t, nil)

	AssertModelField(t, "mode", m.mode, ModeNormal)
	AssertModelField(t, "focus", m.focus, FocusURL)
	AssertModelField(t, "method", m.method(), "GET")
	AssertModelField(t, "history", m.history.Total(), 0)
	AssertModelField(t, "bookmarks", m.bookmarks.Total(), 0)
	AssertModelField(t, "state", m.ctrl.State(), viewer.StateIdle)
}

func TestSubmit_ShowsPlaceholderThenPrettyJSON(t *testing.T) {
	doer := &stubDoer{contentType: "application/json", body: `{"a":1}`}
	m := CreateTestModel(t, doer)
	m.urlInput.SetValue("https://example.com/api")

	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	AssertModelField(t, "loading", m.loading, true)
	AssertModelField(t, "placeholder", m.ctrl.Snapshot().Display.Text, viewer.LoadingText)
	AssertModelField(t, "history recorded", m.history.Total(), 1)

	finish(t, m, cmd)

	snap := m.ctrl.Snapshot()
	AssertModelField(t, "loading", m.loading, false)
	AssertModelField(t, "display", snap.Display.Text, "{\n  \"a\": 1\n}")
	AssertModelField(t, "state", snap.State, viewer.StateRendered)
	AssertModelField(t, "focus", m.focus, FocusDisplay)
	if !strings.HasPrefix(m.statusMsg, "200 OK") {
		t.Errorf("Expected status to start with 200 OK, got %q", m.statusMsg)
	}

	AssertModelField(t, "requests", len(doer.requests), 1)
	AssertModelField(t, "proxied URL", doer.requests[0].ProxiedURL, "https://corsproxy.io/?https%3A%2F%2Fexample.com%2Fapi")
}

func TestSubmit_EnterInURLField(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com")

	cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	finish(t, m, cmd)

	AssertModelField(t, "display", m.ctrl.Snapshot().Display.Text, "ok")
}

func TestSubmit_ErrorShowsPrefixAndHint(t *testing.T) {
	doer := &stubDoer{err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")}
	m := CreateTestModel(t, doer)
	m.urlInput.SetValue("https://example.com")

	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	snap := m.ctrl.Snapshot()
	AssertModelField(t, "state", snap.State, viewer.StateFailed)
	if !strings.HasPrefix(snap.Display.Text, viewer.ErrorPrefix) {
		t.Errorf("Expected display to start with %q, got %q", viewer.ErrorPrefix, snap.Display.Text)
	}
	AssertModelField(t, "hint", m.errorMsg, hintRefused)
	AssertModelField(t, "focus stays", m.focus, FocusURL)
}

func TestSubmit_StaleResultIsDropped(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com/one")
	first := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	m.urlInput.SetValue("https://example.com/two")
	second := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	finish(t, m, first)
	AssertModelField(t, "still loading", m.loading, true)
	AssertModelField(t, "placeholder kept", m.ctrl.Snapshot().Display.Text, viewer.LoadingText)

	finish(t, m, second)
	AssertModelField(t, "loading", m.loading, false)
	AssertModelField(t, "display", m.ctrl.Snapshot().Display.Text, "ok")
	AssertModelField(t, "history", m.history.Total(), 2)
}

func TestReset_ClearsFieldsKeepsMethod(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com")
	m.headersInput.SetValue("X-Test: 1")
	m.bodyInput.SetValue("payload")
	m.cycleMethod(1)
	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})

	AssertModelField(t, "url", m.urlInput.Value(), "")
	AssertModelField(t, "headers", m.headersInput.Value(), "")
	AssertModelField(t, "body", m.bodyInput.Value(), "")
	AssertModelField(t, "method", m.method(), "POST")
	AssertModelField(t, "display", m.ctrl.Snapshot().Display.Text, "")
	AssertModelField(t, "state", m.ctrl.State(), viewer.StateIdle)
	AssertModelField(t, "history kept", m.history.Total(), 1)
}

func TestReset_DropsInFlightResult(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com")
	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	finish(t, m, cmd)

	AssertModelField(t, "display", m.ctrl.Snapshot().Display.Text, "")
	AssertModelField(t, "state", m.ctrl.State(), viewer.StateIdle)
}

func TestBookmark_AddsOnce(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlB})
	AssertModelField(t, "bookmarks", m.bookmarks.Total(), 1)
	AssertModelField(t, "status", m.statusMsg, "Bookmark saved")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlB})
	AssertModelField(t, "bookmarks", m.bookmarks.Total(), 1)
	AssertModelField(t, "status", m.statusMsg, "Already bookmarked")
}

func TestBookmark_EmptyURLIgnored(t *testing.T) {
	m := CreateTestModel(t, nil)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlB})

	AssertModelField(t, "bookmarks", m.bookmarks.Total(), 0)
	AssertModelField(t, "error", m.errorMsg, "Nothing to bookmark")
}

func TestFocus_Cycling(t *testing.T) {
	m := CreateTestModel(t, nil)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	AssertModelField(t, "after tab", m.focus, FocusMethod)

	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	AssertModelField(t, "wraps backwards", m.focus, FocusDisplay)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	AssertModelField(t, "wraps forwards", m.focus, FocusURL)
}

func TestURLField_TypesBoundLetters(t *testing.T) {
	m := CreateTestModel(t, nil)

	press(m, runes("q"))

	AssertModelField(t, "url", m.urlInput.Value(), "q")
	AssertModelField(t, "mode", m.mode, ModeNormal)
}

func TestMethod_CyclesWithKeys(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.setFocus(FocusMethod)

	press(m, runes("l"))
	AssertModelField(t, "next", m.method(), "POST")

	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	AssertModelField(t, "wraps", m.method(), "OPTIONS")
}

func TestToggles(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.setFocus(FocusDisplay)

	press(m, runes("f"))
	AssertModelField(t, "force frame", m.toggles.ForceFrame, true)

	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r"), Alt: true})
	AssertModelField(t, "force raw", m.toggles.ForceRaw, true)

	AssertModelField(t, "form carries toggles", m.collectForm().Toggles.ForceFrame, true)
}

func TestFrame_OpenInBrowser(t *testing.T) {
	m := CreateTestModel(t, &stubDoer{contentType: "text/html; charset=utf-8", body: "<html></html>"})
	var opened string
	m.launchBrowser = func(url string) error {
		opened = url
		return nil
	}
	m.urlInput.SetValue("https://example.com")
	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	display := m.ctrl.Snapshot().Display
	AssertModelField(t, "frame visible", display.FrameVisible, true)
	AssertModelField(t, "focus", m.focus, FocusDisplay)

	cmd := press(m, runes("o"))
	if cmd == nil {
		t.Fatal("Expected a browser command")
	}
	msg := cmd()
	AssertModelField(t, "status", msg, tea.Msg(statusMsg("Opened in browser")))
	AssertModelField(t, "opened", opened, display.FrameURL)
}

func TestFrame_OpenWithoutFrame(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.setFocus(FocusDisplay)

	cmd := press(m, runes("o"))

	if cmd != nil {
		t.Error("Expected no command without a frame")
	}
	AssertModelField(t, "error", m.errorMsg, "No frame to open")
}

func TestHistory_SelectCopiesIntoURL(t *testing.T) {
	m := CreateTestModel(t, nil)
	for _, url := range []string{"https://a.example", "https://b.example"} {
		m.urlInput.SetValue(url)
		finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))
	}
	m.urlInput.SetValue("")

	m.setFocus(FocusHistory)
	press(m, runes("j"))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	AssertModelField(t, "url", m.urlInput.Value(), "https://a.example")
	AssertModelField(t, "focus", m.focus, FocusURL)
	AssertModelField(t, "controller form", m.ctrl.Form().URL, "https://a.example")
}

func TestHistory_GGJumpsToTop(t *testing.T) {
	m := CreateTestModel(t, nil)
	for _, url := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		m.urlInput.SetValue(url)
		finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))
	}

	m.setFocus(FocusHistory)
	press(m, runes("G"))
	AssertModelField(t, "bottom", m.history.Cursor(), 2)

	press(m, runes("g"))
	AssertModelField(t, "pending g", m.history.Cursor(), 2)
	press(m, runes("g"))
	AssertModelField(t, "top", m.history.Cursor(), 0)
}

func TestHistory_FilterAndDelete(t *testing.T) {
	m := CreateTestModel(t, nil)
	for _, url := range []string{"https://github.com", "https://example.com/api"} {
		m.urlInput.SetValue(url)
		finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))
	}

	m.setFocus(FocusHistory)
	press(m, runes("/"))
	AssertModelField(t, "mode", m.mode, ModeFilter)

	press(m, runes("git"))
	AssertModelField(t, "filtered", m.history.Len(), 1)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	AssertModelField(t, "mode", m.mode, ModeNormal)
	AssertModelField(t, "filter kept", m.history.Filter(), "git")

	press(m, runes("d"))
	AssertModelField(t, "history after delete", m.history.Total(), 1)
	AssertModelField(t, "store after delete", m.ctrl.History().Contains("https://github.com"), false)
}

func TestHistory_FilterCancelClears(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com")
	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	m.setFocus(FocusHistory)
	press(m, runes("/"))
	press(m, runes("zzz"))
	AssertModelField(t, "no matches", m.history.Len(), 0)

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "mode", m.mode, ModeNormal)
	AssertModelField(t, "restored", m.history.Len(), 1)
}

func TestHistory_Clear(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.urlInput.SetValue("https://example.com")
	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	m.setFocus(FocusHistory)
	press(m, runes("C"))

	AssertModelField(t, "history", m.history.Total(), 0)
	AssertModelField(t, "store", m.ctrl.History().Len(), 0)
}

func TestDisplay_Query(t *testing.T) {
	m := CreateTestModel(t, &stubDoer{contentType: "application/json", body: `{"a":{"b":[1,2]}}`})
	m.urlInput.SetValue("https://example.com")
	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	press(m, runes("J"))
	AssertModelField(t, "mode", m.mode, ModeQuery)

	press(m, runes("a.b[0]"))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	AssertModelField(t, "mode", m.mode, ModeNormal)
	AssertModelField(t, "query", m.query, "a.b[0]")
	AssertModelField(t, "queried", m.displayText(m.ctrl.Snapshot().Display.Text), "1")

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "query cleared", m.query, "")
}

func TestDisplay_InvalidQueryRejected(t *testing.T) {
	m := CreateTestModel(t, &stubDoer{contentType: "application/json", body: `{"a":1}`})
	m.urlInput.SetValue("https://example.com")
	finish(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	press(m, runes("J"))
	press(m, runes("a[["))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	AssertModelField(t, "still prompting", m.mode, ModeQuery)
	AssertModelField(t, "error", m.errorMsg, "Invalid JMESPath expression")
	AssertModelField(t, "query", m.query, "")
}

func TestHelp_OpenAndClose(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.setFocus(FocusDisplay)

	press(m, runes("?"))
	AssertModelField(t, "mode", m.mode, ModeHelp)
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("Expected help view to contain title")
	}

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "mode", m.mode, ModeNormal)
}

func TestView_RendersPanels(t *testing.T) {
	m := CreateTestModel(t, nil)

	view := m.View()

	for _, want := range []string{"Request", "History", "Bookmarks", "Response"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestQuit_FromNonTextPanel(t *testing.T) {
	m := CreateTestModel(t, nil)
	m.setFocus(FocusDisplay)

	cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii", "abcdefghij", 8, "abcde..."},
		{"multibyte kept whole", "日本語のテキストです", 8, "日本語のテ..."},
		{"multibyte fits", "日本語", 3, "日本語"},
		{"tiny limit", "héllo", 2, "hé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Expected valid UTF-8, got %q", got)
			}
		})
	}
}
