package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerFormBindings(r)
	registerNormalModeBindings(r)
	registerMethodBindings(r)
	registerListBindings(r)
	registerDisplayBindings(r)
	registerTextInputBindings(r)
	registerModalBindings(r)

	return r
}

// registerGlobalBindings sets up bindings available in all modes. They use
// modifiers so they never collide with typed text.
func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "tab", ActionFocusNext)
	r.Register(ContextGlobal, "shift+tab", ActionFocusPrev)
	r.Register(ContextGlobal, "ctrl+s", ActionSubmit)
	r.Register(ContextGlobal, "ctrl+b", ActionBookmark)
	r.Register(ContextGlobal, "ctrl+r", ActionReset)
	r.Register(ContextGlobal, "alt+f", ActionToggleFrame)
	r.Register(ContextGlobal, "alt+r", ActionToggleRaw)
}

// registerFormBindings covers the headers and body text areas and the URL
// field, where plain keys are typed text
func registerFormBindings(r *Registry) {
	r.Register(ContextForm, "esc", ActionBlur)

	r.Register(ContextURL, "esc", ActionBlur)
	r.Register(ContextURL, "enter", ActionSubmit)
}

// registerNormalModeBindings sets up single-key bindings for panels that
// don't take text
func registerNormalModeBindings(r *Registry) {
	r.Register(ContextNormal, "q", ActionQuit)
	r.Register(ContextNormal, "?", ActionOpenHelp)
	r.Register(ContextNormal, "enter", ActionSubmit)
	r.Register(ContextNormal, "b", ActionBookmark)
	r.Register(ContextNormal, "R", ActionReset)
	r.Register(ContextNormal, "f", ActionToggleFrame)
	r.Register(ContextNormal, "r", ActionToggleRaw)
	r.Register(ContextNormal, "m", ActionMethodNext)
	r.Register(ContextNormal, "M", ActionMethodPrev)
	r.Register(ContextNormal, "c", ActionCopyDisplay)
	r.Register(ContextNormal, "o", ActionOpenBrowser)
}

func registerMethodBindings(r *Registry) {
	inheritNormal(r, ContextMethod)
	r.RegisterMultiple(ContextMethod, []string{"right", "l", " "}, ActionMethodNext)
	r.RegisterMultiple(ContextMethod, []string{"left", "h"}, ActionMethodPrev)
}

func registerListBindings(r *Registry) {
	inheritNormal(r, ContextList)
	r.RegisterMultiple(ContextList, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextList, []string{"down", "j"}, ActionNavigateDown)
	r.Register(ContextList, "g", ActionGoToTopPrepare)
	r.RegisterMultiple(ContextList, []string{"gg", "home"}, ActionGoToTop)
	r.RegisterMultiple(ContextList, []string{"G", "end"}, ActionGoToBottom)
	r.Register(ContextList, "enter", ActionSelectEntry)
	r.Register(ContextList, "d", ActionDeleteEntry)
	r.Register(ContextList, "C", ActionClearList)
	r.Register(ContextList, "/", ActionFilterList)
}

func registerDisplayBindings(r *Registry) {
	inheritNormal(r, ContextDisplay)
	r.RegisterMultiple(ContextDisplay, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextDisplay, []string{"down", "j"}, ActionNavigateDown)
	r.Register(ContextDisplay, "pgup", ActionPageUp)
	r.Register(ContextDisplay, "pgdown", ActionPageDown)
	r.Register(ContextDisplay, "ctrl+u", ActionHalfPageUp)
	r.Register(ContextDisplay, "ctrl+d", ActionHalfPageDown)
	r.Register(ContextDisplay, "g", ActionGoToTopPrepare)
	r.RegisterMultiple(ContextDisplay, []string{"gg", "home"}, ActionGoToTop)
	r.RegisterMultiple(ContextDisplay, []string{"G", "end"}, ActionGoToBottom)
	r.Register(ContextDisplay, "J", ActionQueryResponse)
	r.Register(ContextDisplay, "esc", ActionClearQuery)
}

func registerTextInputBindings(r *Registry) {
	r.Register(ContextTextInput, "enter", ActionTextSubmit)
	r.Register(ContextTextInput, "esc", ActionTextCancel)
}

func registerModalBindings(r *Registry) {
	r.RegisterMultiple(ContextModal, []string{"esc", "q", "?"}, ActionCloseModal)
	r.RegisterMultiple(ContextModal, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextModal, []string{"down", "j"}, ActionNavigateDown)
}

// inheritNormal copies the normal-mode bindings into a panel context
func inheritNormal(r *Registry, context Context) {
	for key, action := range r.bindings[ContextNormal] {
		r.Register(context, key, action)
	}
}
