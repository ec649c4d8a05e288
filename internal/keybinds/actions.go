package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	// Contexts define where keybindings are active
	ContextGlobal    Context = "global"     // Available everywhere
	ContextNormal    Context = "normal"     // Focus on a non-text panel
	ContextForm      Context = "form"       // Typing into URL, headers or body
	ContextURL       Context = "url"        // Typing into the URL field
	ContextMethod    Context = "method"     // Method selector focused
	ContextList      Context = "list"       // History or bookmark panel
	ContextDisplay   Context = "display"    // Response display panel
	ContextTextInput Context = "text_input" // One-line prompts (list filter, query)
	ContextModal     Context = "modal"      // Help overlay
)

const (
	// Global actions
	ActionQuit      Action = "quit"       // Quit application
	ActionQuitForce Action = "quit_force" // Force quit (ctrl+c)
	ActionOpenHelp  Action = "open_help"  // Show the help overlay

	// Focus
	ActionFocusNext Action = "focus_next" // Move focus to the next panel
	ActionFocusPrev Action = "focus_prev" // Move focus to the previous panel
	ActionBlur      Action = "blur"       // Leave a text field

	// Form actions
	ActionSubmit      Action = "submit"       // Send the request
	ActionBookmark    Action = "bookmark"     // Bookmark the current URL
	ActionReset       Action = "reset"        // Clear the form and display
	ActionToggleFrame Action = "toggle_frame" // Toggle force-frame
	ActionToggleRaw   Action = "toggle_raw"   // Toggle force-raw
	ActionMethodNext  Action = "method_next"  // Cycle method forward
	ActionMethodPrev  Action = "method_prev"  // Cycle method backward

	// Navigation actions
	ActionNavigateUp     Action = "navigate_up"       // Move up one item
	ActionNavigateDown   Action = "navigate_down"     // Move down one item
	ActionPageUp         Action = "page_up"           // Move up one page
	ActionPageDown       Action = "page_down"         // Move down one page
	ActionHalfPageUp     Action = "half_page_up"      // Move up half page (ctrl+u)
	ActionHalfPageDown   Action = "half_page_down"    // Move down half page (ctrl+d)
	ActionGoToTop        Action = "go_to_top"         // Go to top
	ActionGoToBottom     Action = "go_to_bottom"      // Go to bottom
	ActionGoToTopPrepare Action = "go_to_top_prepare" // First 'g' in 'gg' sequence

	// List actions
	ActionSelectEntry Action = "select_entry" // Copy entry into the URL field
	ActionDeleteEntry Action = "delete_entry" // Remove entry from the list
	ActionClearList   Action = "clear_list"   // Remove every entry
	ActionFilterList  Action = "filter_list"  // Fuzzy-filter the list

	// Display actions
	ActionCopyDisplay   Action = "copy_display"    // Copy display text or frame URL
	ActionOpenBrowser   Action = "open_browser"    // Open the frame URL externally
	ActionQueryResponse Action = "query_response"  // Apply a JMESPath query
	ActionClearQuery    Action = "clear_query"     // Drop the active query

	// Text input / modal actions
	ActionTextSubmit Action = "text_submit" // Submit text input
	ActionTextCancel Action = "text_cancel" // Cancel text input
	ActionCloseModal Action = "close_modal" // Close current modal
)

// KnownActions lists every action a binding may name
var KnownActions = []Action{
	ActionQuit, ActionQuitForce, ActionOpenHelp,
	ActionFocusNext, ActionFocusPrev, ActionBlur,
	ActionSubmit, ActionBookmark, ActionReset, ActionToggleFrame, ActionToggleRaw,
	ActionMethodNext, ActionMethodPrev,
	ActionNavigateUp, ActionNavigateDown, ActionPageUp, ActionPageDown,
	ActionHalfPageUp, ActionHalfPageDown, ActionGoToTop, ActionGoToBottom, ActionGoToTopPrepare,
	ActionSelectEntry, ActionDeleteEntry, ActionClearList, ActionFilterList,
	ActionCopyDisplay, ActionOpenBrowser, ActionQueryResponse, ActionClearQuery,
	ActionTextSubmit, ActionTextCancel, ActionCloseModal,
}

// IsKnownAction reports whether a is one of KnownActions
func IsKnownAction(a Action) bool {
	for _, known := range KnownActions {
		if known == a {
			return true
		}
	}
	return false
}
