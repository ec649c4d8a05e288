package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/studiowebux/proxyview/internal/filter"
	"github.com/studiowebux/proxyview/internal/liststore"
	"github.com/studiowebux/proxyview/internal/viewer"
	"go.uber.org/zap"
)

// submit starts a submission; the network part runs as a command
func (m *Model) submit() tea.Cmd {
	sub := m.ctrl.Begin(m.collectForm())

	m.loading = true
	m.query = ""
	m.errorMsg = ""
	m.setStatusMessage(fmt.Sprintf("Sending %s %s", sub.Descriptor.Method, sub.Descriptor.TargetURL))
	m.refreshLists()
	m.updateDisplayView()

	ctrl := m.ctrl
	return func() tea.Msg {
		return submissionDoneMsg{result: ctrl.Await(context.Background(), sub)}
	}
}

// handleSubmissionDone applies a finished submission unless a newer one
// (or a reset) superseded it
func (m *Model) handleSubmissionDone(msg submissionDoneMsg) tea.Cmd {
	if !m.ctrl.Complete(msg.result) {
		return nil
	}

	m.loading = false
	m.updateDisplayView()

	if msg.result.Err != nil {
		m.statusMsg = ""
		m.setErrorMessage(errorHintFor(msg.result.Err))
		return nil
	}

	m.errorMsg = ""
	m.setStatusMessage(metaSummary(msg.result))
	return m.setFocus(FocusDisplay)
}

// metaSummary formats status, size and timing for the footer
func metaSummary(r viewer.Result) string {
	meta := r.Meta
	if r.Outcome.IsFrame() {
		return fmt.Sprintf("%s | frame | %s", meta.Status, meta.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s | %s | %s", meta.Status, humanize.Bytes(uint64(meta.Size)), meta.Duration.Round(time.Millisecond))
}

// bookmarkCurrent bookmarks the URL field
func (m *Model) bookmarkCurrent() tea.Cmd {
	url := m.urlInput.Value()
	if url == "" {
		m.setErrorMessage("Nothing to bookmark")
		return nil
	}

	added, err := m.ctrl.Bookmark(url)
	m.refreshLists()
	switch {
	case err != nil:
		m.setErrorMessage(fmt.Sprintf("Failed to save bookmark: %v", err))
	case added:
		m.errorMsg = ""
		m.setStatusMessage("Bookmark saved")
	default:
		m.setStatusMessage("Already bookmarked")
	}
	return nil
}

// reset clears the form fields and the display; method and toggles stay
func (m *Model) reset() {
	m.ctrl.Reset()

	m.urlInput.SetValue("")
	m.headersInput.Reset()
	m.bodyInput.Reset()
	m.query = ""
	m.loading = false
	m.errorMsg = ""
	m.setStatusMessage("Form reset")
	m.updateDisplayView()
}

// storeFor returns the store behind the focused list panel
func (m *Model) storeFor() *liststore.Store {
	switch m.focus {
	case FocusHistory:
		return m.ctrl.History()
	case FocusBookmarks:
		return m.ctrl.Bookmarks()
	}
	return nil
}

// selectEntry copies the highlighted entry into the URL field
func (m *Model) selectEntry() tea.Cmd {
	list := m.activeList()
	if list == nil {
		return nil
	}
	sel, ok := list.Selected()
	if !ok {
		return nil
	}

	var url string
	if m.focus == FocusHistory {
		url, ok = m.ctrl.SelectHistory(sel.Index)
	} else {
		url, ok = m.ctrl.SelectBookmark(sel.Index)
	}
	if !ok {
		return nil
	}

	m.urlInput.SetValue(url)
	m.urlInput.CursorEnd()
	return m.setFocus(FocusURL)
}

func (m *Model) deleteEntry() {
	list, store := m.activeList(), m.storeFor()
	if list == nil || store == nil {
		return
	}
	sel, ok := list.Selected()
	if !ok {
		return
	}

	if _, err := store.Remove(sel.Value); err != nil {
		m.setErrorMessage(fmt.Sprintf("Failed to remove entry: %v", err))
	} else {
		m.setStatusMessage("Removed " + sel.Value)
	}
	m.refreshLists()
}

func (m *Model) clearList() {
	list, store := m.activeList(), m.storeFor()
	if list == nil || store == nil {
		return
	}

	if err := store.Clear(); err != nil {
		m.setErrorMessage(fmt.Sprintf("Failed to clear %s: %v", list.Title(), err))
	} else {
		m.setStatusMessage(list.Title() + " cleared")
	}
	m.refreshLists()
}

func (m *Model) startFilter() tea.Cmd {
	list := m.activeList()
	if list == nil {
		return nil
	}

	m.mode = ModeFilter
	m.filterTarget = list
	m.promptInput.SetValue(list.Filter())
	m.promptInput.CursorEnd()
	return m.promptInput.Focus()
}

func (m *Model) startQuery() tea.Cmd {
	if m.ctrl.Snapshot().Display.FrameVisible {
		m.setErrorMessage("Queries apply to text responses only")
		return nil
	}

	m.mode = ModeQuery
	m.promptInput.SetValue(m.query)
	m.promptInput.CursorEnd()
	return m.promptInput.Focus()
}

func (m *Model) submitPrompt() tea.Cmd {
	value := m.promptInput.Value()

	switch m.mode {
	case ModeFilter:
		if m.filterTarget != nil {
			m.filterTarget.SetFilter(value)
		}
	case ModeQuery:
		if value != "" && !filter.IsValidJMESPath(value) {
			m.setErrorMessage("Invalid JMESPath expression")
			return nil
		}
		m.query = value
		m.updateDisplayView()
	}

	m.closePrompt()
	return nil
}

func (m *Model) cancelPrompt() {
	if m.mode == ModeFilter && m.filterTarget != nil {
		m.filterTarget.SetFilter("")
	}
	m.closePrompt()
}

func (m *Model) closePrompt() {
	m.mode = ModeNormal
	m.filterTarget = nil
	m.promptInput.Blur()
}

// copyToClipboard copies the full display text, or the frame URL
func (m *Model) copyToClipboard() tea.Cmd {
	display := m.ctrl.Snapshot().Display
	content := display.Text
	what := "Display"
	if display.FrameVisible {
		content = display.FrameURL
		what = "Frame URL"
	} else if m.query != "" {
		content = m.displayText(display.Text)
	}

	return func() tea.Msg {
		if content == "" {
			return errorMsg("Nothing to copy")
		}
		if err := clipboard.WriteAll(content); err != nil {
			return errorMsg(fmt.Sprintf("Failed to copy to clipboard: %v", err))
		}
		return statusMsg(what + " copied to clipboard")
	}
}

// openFrameInBrowser hands the frame URL to the system browser
func (m *Model) openFrameInBrowser() tea.Cmd {
	display := m.ctrl.Snapshot().Display
	if !display.FrameVisible {
		m.setErrorMessage("No frame to open")
		return nil
	}

	url := display.FrameURL
	launch := m.launchBrowser
	logger := m.logger
	return func() tea.Msg {
		if err := launch(url); err != nil {
			logger.Warn("failed to open browser", zap.String("url", url), zap.Error(err))
			return errorMsg(fmt.Sprintf("Failed to open browser: %v", err))
		}
		return statusMsg("Opened in browser")
	}
}

// openInBrowser starts the platform URL opener without waiting for it
func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
