package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	b, err := newBroker()
	if err != nil {
		return err
	}
	defer b.close()

	sess, err := b.manager.GetSession()
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("Signed in as %s <%s>\n", sess.Account.Label, sess.Account.ID)

	expiry := sess.Expiry()
	if remaining := time.Until(expiry); remaining > 0 {
		fmt.Printf("Access token expires %s (in %s)\n",
			expiry.Format(time.RFC1123), remaining.Round(time.Minute))
	} else {
		fmt.Println("Access token expired; it will refresh on next use.")
	}

	if len(sess.Scopes) > 0 {
		fmt.Printf("Scopes: %v\n", sess.Scopes)
	}

	return nil
}
