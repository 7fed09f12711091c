package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	autherrors "github.com/mindbowser/pilot-auth/internal/errors"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser",
	Long: `Open the provider's login page in the browser and wait for the
redirect. Interrupt with Ctrl-C to cancel.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringSlice("scope", nil, "permission scope (repeatable)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	scopes, _ := cmd.Flags().GetStringSlice("scope")

	b, err := newBroker()
	if err != nil {
		return err
	}
	defer b.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The redirect source must be listening before the browser opens.
	sourceCtx, cancelSource := context.WithCancel(context.Background())
	defer cancelSource()

	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- b.source.Run(sourceCtx)
	}()

	fmt.Println("Opening the browser to sign in to Epico Pilot...")

	sess, err := b.manager.Login(ctx, scopes)
	if err != nil {
		switch {
		case errors.Is(err, autherrors.ErrUserCancelled):
			return fmt.Errorf("sign in cancelled")
		case errors.Is(err, autherrors.ErrLoginTimedOut):
			return fmt.Errorf("sign in timed out; try again")
		default:
			return fmt.Errorf("sign in failed: %w", err)
		}
	}

	fmt.Printf("Signed in as %s <%s>\n", sess.Account.Label, sess.Account.ID)

	cancelSource()
	if err := <-sourceErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
