// Package app wires settings, logging, storage, the HTTP client and the
// controller that every surface shares.
package app

import (
	"fmt"
	"os"

	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/keybinds"
	"github.com/studiowebux/proxyview/internal/liststore"
	"github.com/studiowebux/proxyview/internal/logging"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/storage"
	"github.com/studiowebux/proxyview/internal/viewer"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Version is reported by --version and sent as the User-Agent
const Version = "0.1.0"

// Options are command-line overrides applied on top of the settings
type Options struct {
	LogStderr     bool
	Ephemeral     bool // keep history and bookmarks in memory only
	ProxyTemplate string
	LogLevel      string
}

// App owns the long-lived resources of one process
type App struct {
	Settings   config.Settings
	Logger     *logging.Logger
	KV         storage.KV
	Controller *viewer.Controller

	syncLogger bool
}

// New initializes the configuration directory and builds the controller
func New(opts Options) (*App, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if opts.ProxyTemplate != "" {
		settings.ProxyTemplate = opts.ProxyTemplate
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}
	if opts.Ephemeral {
		settings.Storage = config.StorageMemory
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := logging.ValidateLevel(settings.LogLevel); err != nil {
		return nil, err
	}

	logCfg := logging.FileConfig(config.LogFile, settings.LogLevel, settings.LogDevelopment)
	if opts.LogStderr {
		logCfg = logging.StderrConfig(settings.LogLevel, settings.LogDevelopment)
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		// An unwritable log file must not keep the viewer from starting
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		logger = logging.NewNop()
	}

	kv, err := storage.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	clientOpts := pipeline.OptionsFromSettings(settings)
	clientOpts.UserAgent = "proxyview/" + Version
	client, err := pipeline.NewClient(clientOpts)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	history := liststore.Load(kv, liststore.HistoryKey, settings.HistoryCap, logger)
	bookmarks := liststore.Load(kv, liststore.BookmarkKey, settings.BookmarkCap, logger)

	ctrl := viewer.New(viewer.Options{
		Doer:          client,
		History:       history,
		Bookmarks:     bookmarks,
		ProxyTemplate: settings.ProxyTemplate,
		Logger:        logger,
	})

	logger.Info("started",
		zap.String("version", Version),
		zap.String("storage", settings.Storage),
		zap.String("proxy_template", settings.ProxyTemplate),
		zap.Int("history", history.Len()),
		zap.Int("bookmarks", bookmarks.Len()),
	)

	return &App{
		Settings:   settings,
		Logger:     logger,
		KV:         kv,
		Controller: ctrl,
		syncLogger: !opts.LogStderr,
	}, nil
}

// Keybinds loads the default bindings plus user overrides. Validation
// warnings are logged; unknown actions fail.
func (a *App) Keybinds() (*keybinds.Registry, error) {
	registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return nil, err
	}

	result := keybinds.ValidateRegistry(registry)
	for _, warning := range result.Warnings {
		a.Logger.Warn("keybinding warning", zap.String("detail", warning.Error()))
	}
	if result.HasErrors() {
		return nil, fmt.Errorf("invalid keybindings:\n%s", result.String())
	}

	return registry, nil
}

// Close releases storage and flushes the logger
func (a *App) Close() error {
	var err error
	if a.KV != nil {
		err = multierr.Append(err, a.KV.Close())
	}
	// Sync on stderr fails with EINVAL on some platforms
	if a.Logger != nil && a.syncLogger {
		err = multierr.Append(err, a.Logger.Sync())
	}
	return err
}
