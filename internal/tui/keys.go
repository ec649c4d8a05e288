package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/proxyview/internal/keybinds"
	"github.com/studiowebux/proxyview/internal/pipeline"
)

// handleKeyPress routes key presses based on current mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case ModeHelp:
		return m.handleHelpKeys(msg)
	case ModeFilter, ModeQuery:
		return m.handlePromptKeys(msg)
	}

	context := m.keyContext()
	action, complete, partial := m.keybinds.MatchMultiKey(context, msg.String())
	if partial {
		return nil
	}
	if complete {
		return m.dispatch(action)
	}

	// Unbound keys are typed into the focused field
	return m.updateFocusedInput(msg)
}

// dispatch performs an action in the current focus
func (m *Model) dispatch(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionQuit, keybinds.ActionQuitForce:
		return tea.Quit

	case keybinds.ActionOpenHelp:
		m.mode = ModeHelp
		m.updateHelpView()
		return nil

	case keybinds.ActionFocusNext:
		return m.setFocus((m.focus + 1) % focusCount)
	case keybinds.ActionFocusPrev:
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	case keybinds.ActionBlur:
		return m.setFocus(FocusDisplay)

	case keybinds.ActionSubmit:
		return m.submit()
	case keybinds.ActionBookmark:
		return m.bookmarkCurrent()
	case keybinds.ActionReset:
		m.reset()
		return nil
	case keybinds.ActionToggleFrame:
		m.toggles.ForceFrame = !m.toggles.ForceFrame
		m.setStatusMessage(toggleStatus("Force frame", m.toggles.ForceFrame))
		return nil
	case keybinds.ActionToggleRaw:
		m.toggles.ForceRaw = !m.toggles.ForceRaw
		m.setStatusMessage(toggleStatus("Force raw", m.toggles.ForceRaw))
		return nil
	case keybinds.ActionMethodNext:
		m.cycleMethod(1)
		return nil
	case keybinds.ActionMethodPrev:
		m.cycleMethod(-1)
		return nil

	case keybinds.ActionNavigateUp:
		m.scroll(-1)
	case keybinds.ActionNavigateDown:
		m.scroll(1)
	case keybinds.ActionPageUp:
		m.scrollPage(-1, false)
	case keybinds.ActionPageDown:
		m.scrollPage(1, false)
	case keybinds.ActionHalfPageUp:
		m.scrollPage(-1, true)
	case keybinds.ActionHalfPageDown:
		m.scrollPage(1, true)
	case keybinds.ActionGoToTop:
		m.scrollEdge(true)
	case keybinds.ActionGoToBottom:
		m.scrollEdge(false)

	case keybinds.ActionSelectEntry:
		return m.selectEntry()
	case keybinds.ActionDeleteEntry:
		m.deleteEntry()
	case keybinds.ActionClearList:
		m.clearList()
	case keybinds.ActionFilterList:
		return m.startFilter()

	case keybinds.ActionCopyDisplay:
		return m.copyToClipboard()
	case keybinds.ActionOpenBrowser:
		return m.openFrameInBrowser()
	case keybinds.ActionQueryResponse:
		return m.startQuery()
	case keybinds.ActionClearQuery:
		if m.query != "" {
			m.query = ""
			m.updateDisplayView()
			m.setStatusMessage("Query cleared")
		}
	}

	return nil
}

// handlePromptKeys drives the one-line filter and query prompts
func (m *Model) handlePromptKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextTextInput, msg.String())
	if ok {
		switch action {
		case keybinds.ActionTextSubmit:
			return m.submitPrompt()
		case keybinds.ActionTextCancel:
			m.cancelPrompt()
			return nil
		case keybinds.ActionQuitForce:
			return tea.Quit
		}
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)

	// Filters apply live
	if m.mode == ModeFilter && m.filterTarget != nil {
		m.filterTarget.SetFilter(m.promptInput.Value())
	}
	return cmd
}

// handleHelpKeys handles keyboard input in help mode
func (m *Model) handleHelpKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextModal, msg.String())
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionCloseModal:
		m.mode = ModeNormal
	case keybinds.ActionQuitForce:
		return tea.Quit
	case keybinds.ActionNavigateUp:
		m.helpView.ScrollUp(1)
	case keybinds.ActionNavigateDown:
		m.helpView.ScrollDown(1)
	}
	return nil
}

// updateFocusedInput forwards a message to the focused text widget
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case FocusURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case FocusHeaders:
		m.headersInput, cmd = m.headersInput.Update(msg)
	case FocusBody:
		m.bodyInput, cmd = m.bodyInput.Update(msg)
	case FocusDisplay:
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			m.displayView, cmd = m.displayView.Update(msg)
		}
	}
	return cmd
}

func (m *Model) cycleMethod(delta int) {
	n := len(pipeline.Methods)
	m.methodIndex = ((m.methodIndex+delta)%n + n) % n
	m.setStatusMessage("Method: " + m.method())
}

// scroll moves the list cursor or the display by delta lines
func (m *Model) scroll(delta int) {
	if list := m.activeList(); list != nil {
		list.Move(delta)
		return
	}
	if m.focus == FocusDisplay {
		if delta < 0 {
			m.displayView.ScrollUp(-delta)
		} else {
			m.displayView.ScrollDown(delta)
		}
	}
}

func (m *Model) scrollPage(dir int, half bool) {
	if list := m.activeList(); list != nil {
		step := m.listHeight()
		if half {
			step = max(1, step/2)
		}
		list.Move(dir * step)
		return
	}
	if m.focus != FocusDisplay {
		return
	}
	switch {
	case dir < 0 && half:
		m.displayView.HalfViewUp()
	case dir > 0 && half:
		m.displayView.HalfViewDown()
	case dir < 0:
		m.displayView.PageUp()
	default:
		m.displayView.PageDown()
	}
}

func (m *Model) scrollEdge(top bool) {
	if list := m.activeList(); list != nil {
		if top {
			list.Top()
		} else {
			list.Bottom()
		}
		return
	}
	if m.focus == FocusDisplay {
		if top {
			m.displayView.GotoTop()
		} else {
			m.displayView.GotoBottom()
		}
	}
}

func toggleStatus(name string, on bool) string {
	if on {
		return name + ": on"
	}
	return name + ": off"
}
