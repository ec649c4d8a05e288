package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/proxyview/internal/keybinds"
	"github.com/studiowebux/proxyview/internal/logging"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/render"
	"github.com/studiowebux/proxyview/internal/viewer"
	"go.uber.org/zap"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter      // typing a fuzzy filter for a list panel
	ModeQuery       // typing a JMESPath query for the display
	ModeHelp
)

// Focus is the panel receiving keys in ModeNormal
type Focus int

const (
	FocusURL Focus = iota
	FocusMethod
	FocusHeaders
	FocusBody
	FocusHistory
	FocusBookmarks
	FocusDisplay

	focusCount
)

func (f Focus) String() string {
	switch f {
	case FocusURL:
		return "url"
	case FocusMethod:
		return "method"
	case FocusHeaders:
		return "headers"
	case FocusBody:
		return "body"
	case FocusHistory:
		return "history"
	case FocusBookmarks:
		return "bookmarks"
	case FocusDisplay:
		return "display"
	}
	return "unknown"
}

// Model represents the TUI state
type Model struct {
	ctrl     *viewer.Controller
	keybinds *keybinds.Registry
	logger   *logging.Logger

	mode  Mode
	focus Focus

	// Form widgets; the controller receives their values on submit
	urlInput     textinput.Model
	headersInput textarea.Model
	bodyInput    textarea.Model
	methodIndex  int
	toggles      render.Toggles

	// List panels, rebuilt from the stores whenever they change
	history      *ListState
	bookmarks    *ListState
	filterTarget *ListState

	// Display
	displayView viewport.Model
	helpView    viewport.Model
	promptInput textinput.Model
	query       string
	loading     bool

	statusMsg string
	errorMsg  string

	width  int
	height int

	// launchBrowser opens a URL outside the terminal; replaced in tests
	launchBrowser func(url string) error
}

// New creates a TUI model bound to ctrl
func New(ctrl *viewer.Controller, registry *keybinds.Registry, logger *logging.Logger) Model {
	if registry == nil {
		registry = keybinds.NewDefaultRegistry()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com/api"
	urlInput.Prompt = ""
	urlInput.CharLimit = 2048

	headersInput := textarea.New()
	headersInput.Placeholder = "Header-Name: value"
	headersInput.ShowLineNumbers = false
	headersInput.SetHeight(formAreaHeight)

	bodyInput := textarea.New()
	bodyInput.Placeholder = "Request body (POST/PUT only)"
	bodyInput.ShowLineNumbers = false
	bodyInput.SetHeight(formAreaHeight)

	promptInput := textinput.New()
	promptInput.Prompt = ""

	m := Model{
		ctrl:          ctrl,
		keybinds:      registry,
		logger:        logger.Named("tui"),
		mode:          ModeNormal,
		focus:         FocusURL,
		urlInput:      urlInput,
		headersInput:  headersInput,
		bodyInput:     bodyInput,
		promptInput:   promptInput,
		history:       NewListState("History"),
		bookmarks:     NewListState("Bookmarks"),
		displayView:   viewport.New(80, 20),
		helpView:      viewport.New(80, 20),
		launchBrowser: openInBrowser,
	}

	form := ctrl.Form()
	m.urlInput.SetValue(form.URL)
	m.headersInput.SetValue(form.Headers)
	m.bodyInput.SetValue(form.Body)
	m.methodIndex = methodIndex(form.Method)
	m.toggles = form.Toggles

	m.urlInput.Focus()
	m.refreshLists()
	m.updateDisplayView()

	return m
}

// Run starts the TUI on the alternate screen
func Run(ctrl *viewer.Controller, registry *keybinds.Registry, logger *logging.Logger) error {
	m := New(ctrl, registry, logger)

	// Pass pointer since Update uses pointer receiver
	p := tea.NewProgram(&m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case submissionDoneMsg:
		cmd = m.handleSubmissionDone(msg)

	case statusMsg:
		m.errorMsg = ""
		m.setStatusMessage(string(msg))

	case errorMsg:
		m.setErrorMessage(string(msg))

	default:
		// Cursor blink and other widget messages
		cmd = m.updateFocusedInput(msg)
	}

	return m, cmd
}

// View renders the TUI
func (m *Model) View() string {
	if m.mode == ModeHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// Custom message types
type submissionDoneMsg struct {
	result viewer.Result
}

type statusMsg string
type errorMsg string

// setStatusMessage truncates for the footer
func (m *Model) setStatusMessage(msg string) {
	m.statusMsg = truncate(msg, 100)
}

func (m *Model) setErrorMessage(msg string) {
	m.errorMsg = truncate(msg, 100)
}

// truncate cuts s to n runes, ending in "..." when shortened
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func methodIndex(method string) int {
	for i, candidate := range pipeline.Methods {
		if candidate == method {
			return i
		}
	}
	return 0
}

// method returns the selected HTTP method
func (m *Model) method() string {
	return pipeline.Methods[m.methodIndex]
}

// collectForm reads the widgets into a controller form
func (m *Model) collectForm() viewer.Form {
	return viewer.Form{
		URL:     m.urlInput.Value(),
		Method:  m.method(),
		Headers: m.headersInput.Value(),
		Body:    m.bodyInput.Value(),
		Toggles: m.toggles,
	}
}

// refreshLists rebuilds both list panels from the stores
func (m *Model) refreshLists() {
	snap := m.ctrl.Snapshot()
	m.history.SetItems(snap.History)
	m.bookmarks.SetItems(snap.Bookmarks)
}

// setFocus moves focus, blurring and focusing the text widgets as needed
func (m *Model) setFocus(f Focus) tea.Cmd {
	m.urlInput.Blur()
	m.headersInput.Blur()
	m.bodyInput.Blur()
	m.keybinds.ClearMultiKeyState(m.keyContext())

	m.focus = f
	m.logger.Debug("focus changed", zap.Stringer("focus", f))

	switch f {
	case FocusURL:
		return m.urlInput.Focus()
	case FocusHeaders:
		return m.headersInput.Focus()
	case FocusBody:
		return m.bodyInput.Focus()
	}
	return nil
}

// activeList returns the focused list panel, if any
func (m *Model) activeList() *ListState {
	switch m.focus {
	case FocusHistory:
		return m.history
	case FocusBookmarks:
		return m.bookmarks
	}
	return nil
}

// keyContext maps the current focus to a keybinding context
func (m *Model) keyContext() keybinds.Context {
	switch m.mode {
	case ModeFilter, ModeQuery:
		return keybinds.ContextTextInput
	case ModeHelp:
		return keybinds.ContextModal
	}

	switch m.focus {
	case FocusURL:
		return keybinds.ContextURL
	case FocusHeaders, FocusBody:
		return keybinds.ContextForm
	case FocusMethod:
		return keybinds.ContextMethod
	case FocusHistory, FocusBookmarks:
		return keybinds.ContextList
	case FocusDisplay:
		return keybinds.ContextDisplay
	}
	return keybinds.ContextNormal
}
