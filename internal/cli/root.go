// Package cli is the snippets command line: the interactive TUI by default,
// plus scriptable commands against the same host.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-desk/internal/config"
	"github.com/sakif/snippet-desk/internal/hostapi"
)

// App carries the resolved settings shared by every command.
type App struct {
	Host     string
	Token    string
	LogFile  string
	Debounce time.Duration
	Poll     time.Duration

	logger  *slog.Logger
	logSink io.Closer
}

// NewRootCmd builds the command tree. cfg supplies the flag defaults.
func NewRootCmd(cfg config.Client) *cobra.Command {
	app := &App{Poll: cfg.PollInterval}

	cmd := &cobra.Command{
		Use:           "snippets",
		Short:         "Browse and edit snippets on a snippet host",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  snippets --host 192.168.1.20:8080

  # Scriptable commands
  snippets list
  snippets new --title "Hello" --code 'fmt.Println("hi")'
  snippets attach 42 ./screenshot.png
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(app.LogFile)
		if err != nil {
			return err
		}
		app.logger, app.logSink = logger, closer
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logSink != nil {
			return app.logSink.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Host, "host", cfg.Host, "Host address, e.g. 192.168.1.20:8080 (env SNIPPETS_HOST)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", cfg.Token, "Bearer token issued by the pair command (env SNIPPETS_TOKEN)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", cfg.LogFile, "Write logs to this file (env SNIPPETS_LOG_FILE)")
	cmd.PersistentFlags().DurationVar(&app.Debounce, "debounce", cfg.Debounce, "Quiet period before an autosave (env SNIPPETS_DEBOUNCE)")

	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newNewCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newAttachCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newPairCmd(app))

	return cmd
}

// Execute loads .env and the environment, then runs the command tree.
func Execute(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	return NewRootCmd(cfg).ExecuteContext(ctx)
}

// newLogger writes text logs to path, or discards them: the TUI owns stdout.
func newLogger(path string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("cli: opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, f, nil
}

func (app *App) client() (*hostapi.Client, error) {
	return hostapi.New(hostapi.Config{BaseURL: app.Host, Token: app.Token}, app.log())
}

// connect returns a client after the same permission check the TUI does at
// startup; a denied host gets no data requests.
func (app *App) connect(ctx context.Context) (*hostapi.Client, error) {
	c, err := app.client()
	if err != nil {
		return nil, err
	}
	if _, err := c.Status(ctx); err != nil {
		c.Block()
		return nil, err
	}
	return c, nil
}

func (app *App) log() *slog.Logger {
	if app.logger == nil {
		app.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return app.logger
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
