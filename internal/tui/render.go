package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/proxyview/internal/filter"
	"github.com/studiowebux/proxyview/internal/keybinds"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/viewer"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#0000ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

const (
	// formAreaHeight is the row count of the headers and body editors
	formAreaHeight = 3

	// formPaneHeight is the form pane's content height: title, URL, method,
	// two labelled editors and the toggle line
	formPaneHeight = 1 + 1 + 1 + (1 + formAreaHeight) + (1 + formAreaHeight) + 1

	minListRows = 1
)

// leftWidth is the width of the form and list column
func (m *Model) leftWidth() int {
	width := max(40, m.width*40/100)
	if m.width < 100 {
		width = m.width / 2
	}
	return width
}

// listBoxHeight is the outer height of each list pane
func (m *Model) listBoxHeight() int {
	// -1 status bar, form pane plus its borders
	remaining := m.height - 1 - (formPaneHeight + 2)
	return max(minListRows+4, remaining/2)
}

// listHeight is the number of entries a list pane shows
func (m *Model) listHeight() int {
	// -2 borders, -1 title, -1 position footer
	return max(minListRows, m.listBoxHeight()-4)
}

// updateLayout resizes widgets after a window change.
// MUST match width calculations in renderMain.
func (m *Model) updateLayout() {
	leftWidth := m.leftWidth()
	displayWidth := m.width - leftWidth - 4

	inputWidth := max(10, leftWidth-12)
	m.urlInput.Width = inputWidth
	m.headersInput.SetWidth(max(10, leftWidth-4))
	m.bodyInput.SetWidth(max(10, leftWidth-4))
	m.promptInput.Width = max(10, m.width/2)

	m.displayView.Width = max(10, displayWidth-4)
	m.displayView.Height = max(1, m.height-5) // -1 status, -2 borders, -1 title, -1 blank

	m.helpView.Width = max(10, m.width-8)
	m.helpView.Height = max(1, m.height-10)

	m.updateDisplayView()
}

// renderMain renders the form and list column next to the display
func (m *Model) renderMain() string {
	if m.width == 0 {
		return ""
	}

	leftWidth := m.leftWidth()
	displayWidth := m.width - leftWidth - 4

	left := lipgloss.JoinVertical(
		lipgloss.Left,
		m.box(m.renderForm(leftWidth-2), leftWidth, formPaneHeight, m.formFocused()),
		m.box(m.renderList(m.history, leftWidth-2), leftWidth, m.listBoxHeight()-2, m.focus == FocusHistory),
		m.box(m.renderList(m.bookmarks, leftWidth-2), leftWidth, m.listBoxHeight()-2, m.focus == FocusBookmarks),
	)

	right := m.box(m.renderDisplay(), displayWidth, m.height-3, m.focus == FocusDisplay)

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		mainView,
		m.renderStatusBar(),
	)
}

// box draws a rounded pane; the focused one gets a green border
func (m *Model) box(content string, width, height int, focused bool) string {
	border := colorGray
	if focused {
		border = colorGreen
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width).
		Height(height).
		MaxHeight(height + 2).
		Render(content)
}

func (m *Model) formFocused() bool {
	switch m.focus {
	case FocusURL, FocusMethod, FocusHeaders, FocusBody:
		return true
	}
	return false
}

// label renders a field label, highlighted when focused
func (m *Model) label(name string, f Focus) string {
	if m.focus == f {
		return styleTitle.Render(name)
	}
	return styleSubtle.Render(name)
}

func (m *Model) renderForm(width int) string {
	var lines []string

	lines = append(lines, styleTitle.Render("Request"))
	lines = append(lines, m.label("URL     ", FocusURL)+m.urlInput.View())

	method := m.method()
	if m.focus == FocusMethod {
		method = styleSelected.Render("< " + method + " >")
	}
	lines = append(lines, m.label("Method  ", FocusMethod)+method)

	lines = append(lines, m.label("Headers", FocusHeaders))
	lines = append(lines, m.headersInput.View())

	bodyLabel := "Body"
	if !pipeline.AllowsBody(m.method()) {
		bodyLabel = "Body (ignored for " + m.method() + ")"
	}
	lines = append(lines, m.label(bodyLabel, FocusBody))
	lines = append(lines, m.bodyInput.View())

	lines = append(lines, renderToggle("frame", m.toggles.ForceFrame)+"  "+renderToggle("raw", m.toggles.ForceRaw))

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func renderToggle(name string, on bool) string {
	if on {
		return styleSuccess.Render("[x] force " + name)
	}
	return styleSubtle.Render("[ ] force " + name)
}

// renderList draws a history or bookmark panel with its cursor window
func (m *Model) renderList(list *ListState, width int) string {
	var lines []string

	header := styleTitle.Render(list.Title())
	if list.Filter() != "" {
		header += styleWarning.Render(" /" + list.Filter())
	}
	lines = append(lines, header)

	height := m.listHeight()
	start, end := list.Window(height)
	visible := list.Visible()
	active := m.activeList() == list

	for i := start; i < end; i++ {
		entry := truncate(visible[i].Value, max(10, width-2))
		if i == list.Cursor() && active {
			entry = styleSelected.Render(entry)
		} else if i == list.Cursor() {
			entry = styleSubtle.Render(entry)
		}
		lines = append(lines, entry)
	}
	for i := end - start; i < height; i++ {
		lines = append(lines, "")
	}

	switch {
	case list.Total() == 0:
		lines = append(lines, styleSubtle.Render("Empty"))
	case list.Len() == 0:
		lines = append(lines, styleSubtle.Render("No matches"))
	default:
		lines = append(lines, styleSubtle.Render(fmt.Sprintf("[%d/%d]", list.Cursor()+1, list.Len())))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) renderDisplay() string {
	header := styleTitle.Render("Response")
	if m.query != "" {
		header += styleWarning.Render(" | query: " + m.query)
	}
	return header + "\n\n" + m.displayView.View()
}

// frameCard is what the terminal shows in place of an embedded page
func frameCard(url string, openKey, copyKey string) string {
	var b strings.Builder
	b.WriteString(styleWarning.Render("HTML page") + "\n\n")
	b.WriteString("This response is a page and is shown as a frame:\n\n")
	b.WriteString(styleSuccess.Render(url) + "\n\n")
	b.WriteString(styleSubtle.Render(fmt.Sprintf("%s: open in browser | %s: copy URL", openKey, copyKey)))
	return b.String()
}

// queryText applies the active query to a display text
func (m *Model) queryText(text string) (string, error) {
	if m.query == "" {
		return text, nil
	}
	return filter.Apply(text, m.query)
}

// displayText is queryText falling back to the unfiltered text
func (m *Model) displayText(text string) string {
	out, err := m.queryText(text)
	if err != nil {
		return text
	}
	return out
}

// updateDisplayView loads the controller's display into the viewport
func (m *Model) updateDisplayView() {
	snap := m.ctrl.Snapshot()
	display := snap.Display

	if display.FrameVisible {
		m.displayView.SetContent(frameCard(
			display.FrameURL,
			m.keybinds.GetBindingString(keybinds.ContextDisplay, keybinds.ActionOpenBrowser),
			m.keybinds.GetBindingString(keybinds.ContextDisplay, keybinds.ActionCopyDisplay),
		))
		m.displayView.GotoTop()
		return
	}

	text := display.Text
	switch {
	case text == "":
		text = styleSubtle.Render("Enter a URL and press enter to load it through the proxy")
	case snap.State == viewer.StateFailed:
		text = styleError.Render(text)
	case snap.State == viewer.StateSubmitted, snap.State == viewer.StateAwaiting:
		text = styleWarning.Render(text)
	default:
		queried, err := m.queryText(text)
		if err != nil {
			m.setErrorMessage(fmt.Sprintf("Query failed: %v", err))
		} else {
			text = queried
		}
	}

	m.displayView.SetContent(wrapText(text, m.displayView.Width))
	m.displayView.GotoTop()
}

// renderStatusBar shows state and method on the left, messages or the
// active prompt on the right
func (m *Model) renderStatusBar() string {
	left := fmt.Sprintf("%s | %s", m.ctrl.State(), m.method())
	if m.loading {
		left = styleWarning.Render(left)
	}

	right := ""
	switch m.mode {
	case ModeFilter:
		right = fmt.Sprintf("Filter %s: %s", m.filterTarget.Title(), m.promptInput.View())
	case ModeQuery:
		right = "JMESPath: " + m.promptInput.View()
	default:
		if m.errorMsg != "" {
			right = styleError.Render(m.errorMsg)
		} else if m.statusMsg != "" {
			if strings.Contains(m.statusMsg, "saved") || strings.Contains(m.statusMsg, "copied") ||
				strings.Contains(m.statusMsg, "Opened") || strings.HasPrefix(m.statusMsg, "2") {
				right = styleSuccess.Render(m.statusMsg)
			} else {
				right = m.statusMsg
			}
		} else {
			right = styleSubtle.Render("tab: focus | ctrl+s: send | ? for help")
		}
	}

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}

	return left + strings.Repeat(" ", spacing) + right
}

// helpSections orders the help screen
var helpSections = []struct {
	title   string
	context keybinds.Context
}{
	{"EVERYWHERE", keybinds.ContextGlobal},
	{"URL FIELD", keybinds.ContextURL},
	{"HEADERS AND BODY", keybinds.ContextForm},
	{"METHOD", keybinds.ContextMethod},
	{"HISTORY AND BOOKMARKS", keybinds.ContextList},
	{"RESPONSE", keybinds.ContextDisplay},
	{"PROMPTS", keybinds.ContextTextInput},
}

// updateHelpView lists the live bindings, so custom keybinds show up
func (m *Model) updateHelpView() {
	var b strings.Builder
	b.WriteString("Proxy Viewer - Keyboard Shortcuts\n")

	for _, section := range helpSections {
		b.WriteString("\n" + section.title + "\n")

		byAction := make(map[keybinds.Action][]string)
		var order []keybinds.Action
		for _, binding := range m.keybinds.ListBindings(section.context) {
			if binding.Context != section.context || binding.Action == keybinds.ActionGoToTopPrepare {
				continue
			}
			if _, seen := byAction[binding.Action]; !seen {
				order = append(order, binding.Action)
			}
			byAction[binding.Action] = append(byAction[binding.Action], displayKey(binding.Key))
		}

		for _, action := range order {
			b.WriteString(fmt.Sprintf("  %-18s %s\n", strings.Join(byAction[action], "/"), strings.ReplaceAll(string(action), "_", " ")))
		}
	}

	b.WriteString("\nFOCUS\n")
	b.WriteString("  Green border       Shows which panel is focused\n")
	b.WriteString("  Typed keys         Go to the focused field\n")

	m.helpView.SetContent(b.String())
	m.helpView.GotoTop()
}

func displayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// renderHelp renders the help screen
func (m *Model) renderHelp() string {
	title := styleTitle.Render("Keyboard Shortcuts")
	footer := "↑/↓ j/k: scroll | ESC/?: close"

	fullContent := title + "\n\n" + m.helpView.View() + "\n\n" + styleSubtle.Render(footer)

	helpView := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Width(max(20, m.width-4)).
		Height(max(5, m.height-4)).
		Padding(1, 2).
		Render(fullContent)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpView,
	)
}

// wrapText hard-wraps lines longer than width
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))

	for _, line := range lines {
		runes := []rune(line)
		if len(runes) <= width || strings.Contains(line, "\x1b") {
			wrapped = append(wrapped, line)
			continue
		}
		for len(runes) > width {
			wrapped = append(wrapped, string(runes[:width]))
			runes = runes[width:]
		}
		wrapped = append(wrapped, string(runes))
	}

	return strings.Join(wrapped, "\n")
}
