package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	// URLPlaceholder marks where the encoded target URL goes in the proxy template
	URLPlaceholder = "{url}"

	DefaultProxyTemplate = "https://corsproxy.io/?" + URLPlaceholder
	DefaultListCap       = 20
	DefaultTimeout       = 30
	DefaultAddr          = "127.0.0.1:8787"

	// EnvPrefix is prepended to every environment override (PROXYVIEW_STORAGE, ...)
	EnvPrefix = "PROXYVIEW"
)

// Storage backends
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

type SettingsFormat string

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

// Settings holds user-tunable configuration
type Settings struct {
	ProxyTemplate      string `json:"proxy_template"        toml:"proxy_template"        envconfig:"PROXY_TEMPLATE"`
	Storage            string `json:"storage"               toml:"storage"               envconfig:"STORAGE"`
	HistoryCap         int    `json:"history_cap"           toml:"history_cap"           envconfig:"HISTORY_CAP"`
	BookmarkCap        int    `json:"bookmark_cap"          toml:"bookmark_cap"          envconfig:"BOOKMARK_CAP"`
	TimeoutSeconds     int    `json:"timeout_seconds"       toml:"timeout_seconds"       envconfig:"TIMEOUT"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"  toml:"insecure_skip_verify"  envconfig:"INSECURE"`
	CAFile             string `json:"ca_file,omitempty"     toml:"ca_file,omitempty"     envconfig:"CA_FILE"`
	Addr               string `json:"addr"                  toml:"addr"                  envconfig:"ADDR"`
	LogLevel           string `json:"log_level"             toml:"log_level"             envconfig:"LOG_LEVEL"`
	LogDevelopment     bool   `json:"log_development"       toml:"log_development"       envconfig:"LOG_DEV"`
}

// DefaultSettings returns the built-in configuration
func DefaultSettings() Settings {
	return Settings{
		ProxyTemplate:  DefaultProxyTemplate,
		Storage:        StorageSQLite,
		HistoryCap:     DefaultListCap,
		BookmarkCap:    DefaultListCap,
		TimeoutSeconds: DefaultTimeout,
		Addr:           DefaultAddr,
		LogLevel:       "info",
	}
}

// Timeout returns the request timeout as a duration
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Validate rejects settings the rest of the program cannot work with
func (s Settings) Validate() error {
	if strings.TrimSpace(s.ProxyTemplate) == "" {
		return fmt.Errorf("proxy_template cannot be empty")
	}
	if s.HistoryCap < 1 {
		return fmt.Errorf("history_cap must be at least 1, got %d", s.HistoryCap)
	}
	if s.BookmarkCap < 1 {
		return fmt.Errorf("bookmark_cap must be at least 1, got %d", s.BookmarkCap)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative, got %d", s.TimeoutSeconds)
	}
	switch s.Storage {
	case StorageSQLite, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want sqlite, file or memory)", s.Storage)
	}
	return nil
}

// LoadSettings reads settings.toml, then settings.json, then falls back to
// defaults. Missing files skip to the next candidate; parse errors fail.
// Environment overrides are applied last.
func LoadSettings() (Settings, error) {
	settings := DefaultSettings()

	candidates := []struct {
		path   string
		format SettingsFormat
	}{
		{SettingsTOML, SettingsFormatTOML},
		{SettingsJSON, SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		if candidate.path == "" {
			continue
		}
		data, err := os.ReadFile(candidate.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(accumulated, fmt.Errorf("failed to read settings %q: %w", candidate.path, err))
			continue
		}
		if err := decodeSettings(data, candidate.format, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to parse settings %q: %w", candidate.path, err)
		}
		accumulated = nil
		break
	}
	if accumulated != nil {
		return Settings{}, accumulated
	}

	if err := envconfig.Process(EnvPrefix, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// decodeSettings decodes on top of the defaults already in dst
func decodeSettings(data []byte, format SettingsFormat, dst *Settings) error {
	switch format {
	case SettingsFormatTOML:
		return toml.Unmarshal(data, dst)
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(dst)
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
}

// SaveSettings writes settings as TOML to SettingsTOML
func SaveSettings(settings Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(SettingsTOML, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write settings %q: %w", SettingsTOML, err)
	}
	return nil
}
