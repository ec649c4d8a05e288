/*
Package keybinds provides customizable keyboard binding management for the
terminal UI.

# Contexts

Bindings live in contexts that follow the focused panel:
  - global: modifier keys available everywhere (ctrl+s submit, tab focus)
  - form, url: typing into a field; only esc and enter are bound
  - normal, method, list, display: panels without text entry, single keys
  - text_input: one-line prompts such as the list filter
  - modal: the help overlay

Match checks the specific context first, then global.

# Configuration File Format

~/.proxyview/keybinds.json maps keys to action names per context. An empty
action unbinds the key:

	{
	  "global": { "ctrl+s": "submit" },
	  "list":   { "x": "delete_entry", "d": "" }
	}

# Multi-Key Sequences

"gg" goes to the top in the list and display panels. A lone "g" is held as a
partial match until the next key arrives.
*/
package keybinds
