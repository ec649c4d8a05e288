package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/studiowebux/proxyview/internal/liststore"
	"gopkg.in/yaml.v3"
)

// PrintList writes the entries of a history or bookmark store, newest first
func PrintList(w io.Writer, store *liststore.Store, format string) error {
	items := store.Items()

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Fprintln(w, string(data))

	case FormatYAML:
		data, err := yaml.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Fprint(w, string(data))

	case "", FormatText:
		for _, item := range items {
			fmt.Fprintln(w, item)
		}

	default:
		return fmt.Errorf("unknown output format: %s (use text, json or yaml)", format)
	}

	return nil
}

// AddEntry adds url to store, reporting on w whether it was new
func AddEntry(w io.Writer, store *liststore.Store, url string) error {
	if url == "" {
		return fmt.Errorf("url cannot be empty")
	}

	added, err := store.Add(url)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", store.Key(), err)
	}
	if added {
		fmt.Fprintf(w, "Added %s\n", url)
	} else {
		fmt.Fprintf(w, "Already present: %s\n", url)
	}
	return nil
}

// RemoveEntry removes url from store
func RemoveEntry(w io.Writer, store *liststore.Store, url string) error {
	removed, err := store.Remove(url)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", store.Key(), err)
	}
	if !removed {
		return fmt.Errorf("not found: %s", url)
	}
	fmt.Fprintf(w, "Removed %s\n", url)
	return nil
}

// ClearList empties store
func ClearList(w io.Writer, store *liststore.Store) error {
	n := store.Len()
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", store.Key(), err)
	}
	fmt.Fprintf(w, "Cleared %d entries\n", n)
	return nil
}
