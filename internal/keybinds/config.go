package keybinds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/studiowebux/proxyview/internal/config"
)

// Config is the user's keybinding overrides. Each section maps a key to an
// action name; an empty action name unbinds the key.
type Config struct {
	Version   string                       `json:"version"`
	Global    map[string]string            `json:"global,omitempty"`
	Normal    map[string]string            `json:"normal,omitempty"`
	Form      map[string]string            `json:"form,omitempty"`
	URL       map[string]string            `json:"url,omitempty"`
	Method    map[string]string            `json:"method,omitempty"`
	List      map[string]string            `json:"list,omitempty"`
	Display   map[string]string            `json:"display,omitempty"`
	TextInput map[string]string            `json:"text_input,omitempty"`
	Modal     map[string]string            `json:"modal,omitempty"`
	Custom    map[string]map[string]string `json:"custom,omitempty"`
}

// LoadConfig loads keybinding configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, config.FilePermissions)
}

func (c *Config) sections() map[Context]map[string]string {
	sections := map[Context]map[string]string{
		ContextGlobal:    c.Global,
		ContextNormal:    c.Normal,
		ContextForm:      c.Form,
		ContextURL:       c.URL,
		ContextMethod:    c.Method,
		ContextList:      c.List,
		ContextDisplay:   c.Display,
		ContextTextInput: c.TextInput,
		ContextModal:     c.Modal,
	}
	for name, bindings := range c.Custom {
		sections[Context(name)] = bindings
	}
	return sections
}

// ApplyConfig applies user configuration to a registry.
// User bindings override default bindings; unknown actions are rejected.
func ApplyConfig(registry *Registry, cfg *Config) error {
	for context, bindings := range cfg.sections() {
		for key, actionStr := range bindings {
			if err := ValidateKey(key); err != nil {
				return fmt.Errorf("context %s: %w", context, err)
			}
			if actionStr == "" {
				registry.Unregister(context, key)
				continue
			}
			if err := ValidateAction(actionStr); err != nil {
				return fmt.Errorf("context %s, key %s: %w", context, key, err)
			}
			registry.Register(context, key, Action(actionStr))
		}
	}

	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err == nil {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
		}

		if err := ApplyConfig(registry, cfg); err != nil {
			return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
		}
	}

	return registry, nil
}

// ExportDefaults returns the default bindings in config form, for users who
// want a starting point
func ExportDefaults() *Config {
	r := NewDefaultRegistry()
	export := func(context Context) map[string]string {
		out := make(map[string]string)
		for key, action := range r.bindings[context] {
			out[key] = string(action)
		}
		return out
	}

	return &Config{
		Version:   "1.0",
		Global:    export(ContextGlobal),
		Normal:    export(ContextNormal),
		Form:      export(ContextForm),
		URL:       export(ContextURL),
		Method:    export(ContextMethod),
		List:      export(ContextList),
		Display:   export(ContextDisplay),
		TextInput: export(ContextTextInput),
		Modal:     export(ContextModal),
	}
}
