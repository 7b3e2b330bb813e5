package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/hostapi"
	"github.com/sakif/snippet-desk/internal/session"
	"github.com/sakif/snippet-desk/internal/tui"
)

// shutdownTimeout bounds the exit reconciliation when the TUI quits.
const shutdownTimeout = 10 * time.Second

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive TUI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := app.log()
	bridge := tui.NewBridge()

	sess, err := session.New(session.Config{
		Host:         hostapi.Config{BaseURL: app.Host, Token: app.Token},
		Debounce:     app.Debounce,
		PollInterval: app.Poll,
		Notify:       bridge.Notify,
		OnEvent:      bridge.OnEvent,
		OnStatus:     bridge.OnStatus,
		OnDenied:     bridge.OnDenied,
	}, logger)
	if err != nil {
		return err
	}

	// A denied host still gets the TUI: it shows the blocked screen.
	if err := sess.Start(ctx); err != nil && !errors.Is(err, apperror.ErrPermissionDenied) {
		return err
	}

	runErr := tui.Run(ctx, sess, bridge)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sess.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
	return runErr
}
