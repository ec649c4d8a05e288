package config

import (
	"os"
	"path/filepath"
	"testing"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetPaths(dir)
	t.Cleanup(func() { SetPaths("") })
	return dir
}

func TestLoadSettingsDefaultsWhenMissing(t *testing.T) {
	useTempConfigDir(t)

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if settings.ProxyTemplate != DefaultProxyTemplate {
		t.Errorf("Expected template %q, got %q", DefaultProxyTemplate, settings.ProxyTemplate)
	}
	if settings.HistoryCap != 20 || settings.BookmarkCap != 20 {
		t.Errorf("Expected caps 20/20, got %d/%d", settings.HistoryCap, settings.BookmarkCap)
	}
	if settings.Storage != StorageSQLite {
		t.Errorf("Expected sqlite storage, got %q", settings.Storage)
	}
}

func TestLoadSettingsTOML(t *testing.T) {
	dir := useTempConfigDir(t)

	content := `
proxy_template = "http://localhost:9000/?{url}"
storage = "file"
history_cap = 5
`
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if settings.ProxyTemplate != "http://localhost:9000/?{url}" {
		t.Errorf("Expected TOML template, got %q", settings.ProxyTemplate)
	}
	if settings.Storage != StorageFile {
		t.Errorf("Expected file storage, got %q", settings.Storage)
	}
	if settings.HistoryCap != 5 {
		t.Errorf("Expected history cap 5, got %d", settings.HistoryCap)
	}
	// Untouched keys keep their defaults
	if settings.BookmarkCap != DefaultListCap {
		t.Errorf("Expected default bookmark cap, got %d", settings.BookmarkCap)
	}
}

func TestLoadSettingsJSONRejectsUnknownFields(t *testing.T) {
	dir := useTempConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"nope": 1}`), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	if _, err := LoadSettings(); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv("PROXYVIEW_BOOKMARK_CAP", "3")
	t.Setenv("PROXYVIEW_STORAGE", "memory")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if settings.BookmarkCap != 3 {
		t.Errorf("Expected bookmark cap 3, got %d", settings.BookmarkCap)
	}
	if settings.Storage != StorageMemory {
		t.Errorf("Expected memory storage, got %q", settings.Storage)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"empty template", func(s *Settings) { s.ProxyTemplate = "  " }, true},
		{"zero history cap", func(s *Settings) { s.HistoryCap = 0 }, true},
		{"zero bookmark cap", func(s *Settings) { s.BookmarkCap = 0 }, true},
		{"negative timeout", func(s *Settings) { s.TimeoutSeconds = -1 }, true},
		{"unknown storage", func(s *Settings) { s.Storage = "redis" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	want := DefaultSettings()
	want.HistoryCap = 7
	if err := SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.HistoryCap != 7 {
		t.Errorf("Expected history cap 7, got %d", got.HistoryCap)
	}
}
