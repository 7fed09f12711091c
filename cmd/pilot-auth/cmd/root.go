// Package cmd implements the pilot-auth CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mindbowser/pilot-auth/internal/browser"
	"github.com/mindbowser/pilot-auth/internal/config"
	"github.com/mindbowser/pilot-auth/internal/idp"
	"github.com/mindbowser/pilot-auth/internal/logging"
	"github.com/mindbowser/pilot-auth/internal/redirect"
	"github.com/mindbowser/pilot-auth/internal/secret"
	"github.com/mindbowser/pilot-auth/internal/session"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "pilot-auth",
	Short:         "Auth session broker for the Epico Pilot extension",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// redirectRunner is a redirect source with a run loop. Both the
// loopback HTTP listener and the handoff-file watcher satisfy it.
type redirectRunner interface {
	session.RedirectSource
	Run(ctx context.Context) error
}

// broker bundles the assembled components behind the CLI commands.
type broker struct {
	cfg     *config.Config
	logger  *slog.Logger
	secrets *secret.BoltStore
	source  redirectRunner
	manager *session.Manager
}

// newBroker loads config and wires the session manager with its real
// collaborators.
func newBroker() (*broker, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)

	secrets, err := secret.OpenBolt(cfg.SecretsPath, cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	var source redirectRunner
	switch cfg.RedirectMode {
	case config.RedirectModeFile:
		source, err = redirect.NewFileSource(cfg.HandoffDir, logger)
		if err != nil {
			secrets.Close()
			return nil, err
		}
	default:
		source = redirect.NewHTTPSource(cfg.CallbackAddr, logger)
	}

	manager := session.NewManager(session.Config{
		Secrets:      secrets,
		Provider:     idp.NewClient(cfg.AppURL, cfg.TokenURL, cfg.HTTPTimeout),
		Browser:      browser.ExecLauncher{},
		Redirects:    source,
		RedirectURI:  cfg.RedirectURI,
		Source:       cfg.Source,
		LoginTimeout: cfg.LoginTimeout,
		Logger:       logger,
	})

	return &broker{
		cfg:     cfg,
		logger:  logger,
		secrets: secrets,
		source:  source,
		manager: manager,
	}, nil
}

func (b *broker) close() {
	b.manager.Close()

	if err := b.secrets.Close(); err != nil {
		b.logger.Warn("closing secret store", slog.Any("error", err))
	}
}
