/*
Package tui implements the terminal surface of the proxy viewer.

# Architecture

The TUI follows the Bubble Tea framework's Model-Update-View pattern:
  - Model: widget state plus a pointer to the shared viewer.Controller
  - Update: Processes messages and returns commands
  - View: Renders the current state to the terminal

# Key Components

  - model.go: Core state and initialization, defines the Model struct
  - keys.go: Keyboard input handling and keybind routing
  - actions.go: Submissions, list edits, clipboard and browser commands
  - render.go: Layout, panes, status bar and help screen
  - list_state.go: Cursor and fuzzy filter over the history and bookmark panels
  - error_hint.go: Footer hints for transport errors

# Submissions

A submit calls Controller.Begin synchronously so the loading placeholder and
the history entry appear at once. The request itself runs in a tea.Cmd and
comes back as a submissionDoneMsg; Controller.Complete drops it if a newer
submission or a reset happened meanwhile.

# Frames

A terminal cannot embed a page. HTML responses (or any response with force
frame on) show a card with the proxied URL that can be opened in the system
browser or copied.
*/
package tui
