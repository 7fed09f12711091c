package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the broker daemon",
	Long: `Run the broker daemon: serve login callbacks and keep the
session's access token fresh until interrupted.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	b, err := newBroker()
	if err != nil {
		return err
	}
	defer b.close()

	b.logger.Info("pilot-auth starting",
		slog.String("version", Version),
		slog.String("redirect_mode", b.cfg.RedirectMode),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resume the refresh cadence for a session persisted by a
	// previous run.
	if sess, err := b.manager.GetSession(); err == nil && sess != nil {
		b.logger.Info("resuming session",
			slog.String("account", sess.Account.ID),
			slog.Time("expires", sess.Expiry()),
		)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.source.Run(gctx)
	})

	g.Go(func() error {
		events, cancel := b.manager.OnSessionsChanged()
		defer cancel()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case ev := <-events:
				for _, s := range ev.Added {
					b.logger.Info("session added", slog.String("account", s.Account.ID))
				}
				for _, s := range ev.Changed {
					b.logger.Info("session refreshed", slog.String("account", s.Account.ID))
				}
				for _, s := range ev.Removed {
					b.logger.Info("session removed", slog.String("account", s.Account.ID))
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
