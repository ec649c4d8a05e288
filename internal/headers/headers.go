// Package headers turns free-form "Name: value" text into a header set.
package headers

import "strings"

// Headers maps header names to values. Names are kept exactly as typed and
// remember the order in which they first appeared.
type Headers struct {
	values map[string]string
	order  []string
}

// Parse reads one header per line. Lines without a colon, with a colon in the
// first column, or with an empty name are skipped. A later line with the same
// name replaces the earlier value.
func Parse(raw string) Headers {
	h := Headers{values: make(map[string]string)}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}

		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if name == "" {
			continue
		}

		h.Set(name, value)
	}

	return h
}

// Set adds or replaces a header
func (h *Headers) Set(name, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, exists := h.values[name]; !exists {
		h.order = append(h.order, name)
	}
	h.values[name] = value
}

// Get returns the value for name (exact match)
func (h Headers) Get(name string) (string, bool) {
	v, ok := h.values[name]
	return v, ok
}

func (h Headers) Len() int {
	return len(h.order)
}

// Names returns header names in first-seen order
func (h Headers) Names() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Map returns a copy of the header set
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}

// Each calls fn for every header in first-seen order
func (h Headers) Each(fn func(name, value string)) {
	for _, name := range h.order {
		fn(name, h.values[name])
	}
}

// String renders the set back to one "Name: value" per line
func (h Headers) String() string {
	var b strings.Builder
	h.Each(func(name, value string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
	})
	return b.String()
}
