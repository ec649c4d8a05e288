package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/keybinds"
)

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())

	a, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_Defaults(t *testing.T) {
	a := newTestApp(t, Options{})

	if a.Settings.ProxyTemplate != config.DefaultProxyTemplate {
		t.Errorf("ProxyTemplate = %q, want %q", a.Settings.ProxyTemplate, config.DefaultProxyTemplate)
	}
	if a.Controller == nil {
		t.Fatal("Controller is nil")
	}
	if _, err := os.Stat(config.DatabasePath); err != nil {
		t.Errorf("expected sqlite database at %s: %v", config.DatabasePath, err)
	}
}

func TestNew_Overrides(t *testing.T) {
	a := newTestApp(t, Options{
		Ephemeral:     true,
		ProxyTemplate: "http://localhost:9000/p?u={url}",
		LogLevel:      "debug",
	})

	if a.Settings.Storage != config.StorageMemory {
		t.Errorf("Storage = %q, want %q", a.Settings.Storage, config.StorageMemory)
	}
	if a.Settings.ProxyTemplate != "http://localhost:9000/p?u={url}" {
		t.Errorf("ProxyTemplate = %q", a.Settings.ProxyTemplate)
	}
	if _, err := os.Stat(config.DatabasePath); !os.IsNotExist(err) {
		t.Errorf("ephemeral run should not create %s", config.DatabasePath)
	}
}

func TestNew_InvalidLogLevel(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	if _, err := New(Options{LogLevel: "loud"}); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestNew_PersistsAcrossRuns(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)

	first, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := first.Controller.Bookmark("https://example.com"); err != nil {
		t.Fatalf("Bookmark() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	items := second.Controller.Bookmarks().Items()
	if len(items) != 1 || items[0] != "https://example.com" {
		t.Errorf("bookmarks after reopen = %v", items)
	}
}

func TestKeybinds_Default(t *testing.T) {
	a := newTestApp(t, Options{Ephemeral: true})

	registry, err := a.Keybinds()
	if err != nil {
		t.Fatalf("Keybinds() error = %v", err)
	}
	if action, ok := registry.Match(keybinds.ContextGlobal, "ctrl+c"); !ok || action != keybinds.ActionQuitForce {
		t.Errorf("ctrl+c = %v, %v", action, ok)
	}
}

func TestKeybinds_UnknownAction(t *testing.T) {
	a := newTestApp(t, Options{Ephemeral: true})

	data := []byte(`{"normal": {"x": "launch_rockets"}}`)
	if err := os.WriteFile(filepath.Join(config.ConfigDir, "keybinds.json"), data, config.FilePermissions); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Keybinds(); err == nil {
		t.Fatal("expected error for unknown action")
	}
}
