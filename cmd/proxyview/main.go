package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/studiowebux/proxyview/internal/app"
	"github.com/studiowebux/proxyview/internal/cli"
	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/proxy"
	"github.com/studiowebux/proxyview/internal/tui"
	"github.com/studiowebux/proxyview/internal/web"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "proxyview",
	Short: "Proxy viewer - fetch a URL through a CORS proxy and inspect it",
	Long: `Proxy viewer sends a request to a target URL through a configurable
CORS proxy and shows the result: pretty-printed JSON, plain text, or an
embeddable page.

Run without arguments to start the TUI.

Examples:
  proxyview                                    # Start interactive TUI
  proxyview fetch https://api.example.com/x    # Fetch once and print
  proxyview fetch -X POST -d @body.json URL    # POST a body from a file
  proxyview serve --addr 127.0.0.1:8787        # Start the web viewer
  proxyview bookmarks add https://example.com  # Bookmark a URL
  proxyview config init                        # Write default config files`,
	Version:       app.Version,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			registry, err := a.Keybinds()
			if err != nil {
				return err
			}
			return tui.Run(a.Controller, registry, a.Logger)
		})
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a URL through the proxy and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			opts := cli.FetchOptions{
				URL:          args[0],
				Method:       flagMethod,
				Headers:      flagHeaders,
				Body:         flagBody,
				ForceFrame:   flagFrame,
				ForceRaw:     flagRaw,
				OutputFormat: flagOutput,
				Query:        flagQuery,
				ShowFull:     flagFull,
			}
			return cli.Fetch(cmd.Context(), a.Controller, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web viewer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			addr := flagAddr
			if addr == "" {
				addr = a.Settings.Addr
			}

			server, err := web.NewServer(a.Controller, addr, a.Logger)
			if err != nil {
				return err
			}

			client, err := pipeline.NewRestyClient(pipeline.OptionsFromSettings(a.Settings))
			if err != nil {
				return err
			}
			// Cookies belong to the browser, not to a jar shared by every visitor
			client.SetCookieJar(nil)
			server.MountProxy(proxy.New(proxy.Options{Client: client, Logger: a.Logger}))

			if err := server.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())

			// Route through our own proxy unless a template was chosen explicitly
			if flagLocalProxy && flagProxy == "" && a.Settings.ProxyTemplate == config.DefaultProxyTemplate {
				local := server.LocalProxyTemplate()
				a.Controller.SetProxyTemplate(local)
				fmt.Fprintf(cmd.OutOrStdout(), "Proxy template: %s\n", local)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				a.Logger.Warn("shutdown did not complete", zap.Error(err))
				return err
			}
			return nil
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings.toml and keybinds.json",
	Long: `Write the default settings.toml and keybinds.json to the configuration
directory (~/.proxyview or $PROXYVIEW_HOME) as a starting point for edits.
Existing files are kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.InitConfig(cmd.OutOrStdout(), flagForce)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the request history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the history, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return cli.PrintList(cmd.OutOrStdout(), a.Controller.History(), flagOutput)
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every history entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return cli.ClearList(cmd.OutOrStdout(), a.Controller.History())
		})
	},
}

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Manage bookmarked URLs",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the bookmarks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return cli.PrintList(cmd.OutOrStdout(), a.Controller.Bookmarks(), flagOutput)
		})
	},
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Bookmark a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return cli.AddEntry(cmd.OutOrStdout(), a.Controller.Bookmarks(), args[0])
		})
	},
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:               "rm <url>",
	Aliases:           []string{"remove"},
	Short:             "Remove a bookmark",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeBookmarks,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return cli.RemoveEntry(cmd.OutOrStdout(), a.Controller.Bookmarks(), args[0])
		})
	},
}

// Global flags
var (
	flagLogStderr bool
	flagEphemeral bool
	flagProxy     string
	flagLogLevel  string
)

// Flags for fetch and the list commands
var (
	flagMethod  string
	flagHeaders []string
	flagBody    string
	flagFrame   bool
	flagRaw     bool
	flagOutput  string
	flagQuery   string
	flagFull    bool
)

// Flags for serve
var (
	flagAddr       string
	flagLocalProxy bool
)

// Flags for config init
var (
	flagForce bool
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagLogStderr, "log-stderr", false, "Write logs to stderr instead of the log file")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Keep history and bookmarks in memory only")
	rootCmd.PersistentFlags().StringVar(&flagProxy, "proxy", "", "Proxy URL template containing {url}")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")

	fetchCmd.Flags().StringVarP(&flagMethod, "method", "X", "GET", "HTTP method")
	fetchCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Header line (Name: value), can be repeated")
	fetchCmd.Flags().StringVarP(&flagBody, "data", "d", "", "Request body, @file to read a file, @- for stdin")
	fetchCmd.Flags().BoolVar(&flagFrame, "frame", false, "Treat the response as an embeddable page")
	fetchCmd.Flags().BoolVar(&flagRaw, "raw", false, "Print the body as is, never pretty-print")
	fetchCmd.Flags().StringVarP(&flagOutput, "output", "o", cli.FormatText, "Output format (text/json/yaml)")
	fetchCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath expression applied to the response")
	fetchCmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show status, size and timing")

	for _, c := range []*cobra.Command{historyListCmd, bookmarksListCmd} {
		c.Flags().StringVarP(&flagOutput, "output", "o", cli.FormatText, "Output format (text/json/yaml)")
	}

	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (defaults to the addr setting)")
	serveCmd.Flags().BoolVar(&flagLocalProxy, "local-proxy", true, "Use the built-in /proxy route when no proxy template is configured")

	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite existing files")

	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	bookmarksCmd.AddCommand(bookmarksListCmd, bookmarksAddCmd, bookmarksRemoveCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(fetchCmd, serveCmd, historyCmd, bookmarksCmd, configCmd)
}

// withApp builds the shared resources, runs fn and closes them
func withApp(fn func(a *app.App) error) (err error) {
	a, err := app.New(app.Options{
		LogStderr:     flagLogStderr,
		Ephemeral:     flagEphemeral,
		ProxyTemplate: flagProxy,
		LogLevel:      flagLogLevel,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(a)
}

// completeBookmarks offers the stored bookmarks to shell completion
func completeBookmarks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var urls []string
	_ = withApp(func(a *app.App) error {
		urls = a.Controller.Bookmarks().Items()
		return nil
	})
	return urls, cobra.ShellCompDirectiveNoFileComp
}
