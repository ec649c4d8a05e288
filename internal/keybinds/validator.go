package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a keybinding validation problem
type ValidationError struct {
	Type    string // "invalid", "warning"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Errors (%d):\n", len(r.Errors)))
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(r.Warnings)))
		for _, warn := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn.Error()))
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

// reservedKeys must keep their default action in the global context
var reservedKeys = map[string]Action{
	"ctrl+c": ActionQuitForce,
}

// ValidateRegistry reports reserved keys that were rebound, unknown actions,
// and plain (unmodified) keys bound globally, which would swallow typed text
func ValidateRegistry(registry *Registry) *ValidationResult {
	result := &ValidationResult{}

	contexts := make([]string, 0, len(registry.bindings))
	for context := range registry.bindings {
		contexts = append(contexts, string(context))
	}
	sort.Strings(contexts)

	for _, name := range contexts {
		context := Context(name)
		for _, b := range registry.ListBindings(context) {
			if b.Context != context {
				continue
			}

			if !IsKnownAction(b.Action) {
				result.Errors = append(result.Errors, ValidationError{
					Type: "invalid", Context: context, Key: b.Key,
					Message: fmt.Sprintf("unknown action %q", b.Action),
				})
			}

			if want, reserved := reservedKeys[b.Key]; reserved && context == ContextGlobal && b.Action != want {
				result.Warnings = append(result.Warnings, ValidationError{
					Type: "warning", Context: context, Key: b.Key,
					Message: "reserved key rebound (may cause issues)",
				})
			}

			if context == ContextGlobal && isPlainKey(b.Key) {
				result.Warnings = append(result.Warnings, ValidationError{
					Type: "warning", Context: context, Key: b.Key,
					Message: "unmodified global key shadows typed text",
				})
			}
		}
	}

	return result
}

// isPlainKey reports whether key is a single printable character
func isPlainKey(key string) bool {
	return len([]rune(key)) == 1
}

// ValidateKey checks if a key string is valid
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	for _, mod := range []string{"ctrl+", "alt+", "shift+", "super+"} {
		if key == mod {
			return fmt.Errorf("modifier without key: %s", key)
		}
	}

	return nil
}

// ValidateAction checks that actionStr names a known action
func ValidateAction(actionStr string) error {
	if actionStr == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if !IsKnownAction(Action(actionStr)) {
		return fmt.Errorf("unknown action %q", actionStr)
	}
	return nil
}
