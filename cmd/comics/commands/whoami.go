package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Prints the account the session token belongs to.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		viewer, err := client.Viewer(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", viewer.Nickname, viewer.ID)
		if viewer.Creator {
			fmt.Println("has a creator profile")
		}
		return nil
	},
}
