package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored session",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
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

	if err := b.manager.RemoveSession(sess.ID); err != nil {
		return err
	}

	fmt.Printf("Signed out %s\n", sess.Account.ID)

	return nil
}
