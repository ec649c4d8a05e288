package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/keybinds"
)

// InitConfig writes the default settings.toml and keybinds.json into the
// configuration directory. Existing files are kept unless force is set.
func InitConfig(w io.Writer, force bool) error {
	if err := config.Initialize(); err != nil {
		return err
	}

	files := []struct {
		path  string
		write func() error
	}{
		{config.SettingsTOML, func() error { return config.SaveSettings(config.DefaultSettings()) }},
		{config.KeybindsFile, func() error { return keybinds.SaveConfig(keybinds.ExportDefaults(), config.KeybindsFile) }},
	}

	for _, f := range files {
		if !force {
			if _, err := os.Stat(f.path); err == nil {
				fmt.Fprintf(w, "Kept existing %s\n", f.path)
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", f.path, err)
			}
		}
		if err := f.write(); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		fmt.Fprintf(w, "Wrote %s\n", f.path)
	}
	return nil
}
