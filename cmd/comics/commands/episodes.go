package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(episodesCmd)
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <id>",
	Short: "Lists every episode of a series in ascending order.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid series id %q: %w", args[0], err)
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		w, err := client.Webtoon(ctx, id, kindFlag())
		if err != nil {
			return err
		}

		seq := w.Episodes()
		for seq.Next(ctx) {
			ep := seq.Item()
			line := fmt.Sprintf("#%-4d %s", ep.Number, ep.Title)
			if !ep.Published.IsZero() {
				line += "  (" + ep.Published.Format("2006-01-02") + ")"
			}
			if ep.Upcoming {
				line += "  [upcoming]"
			}
			fmt.Println(line)
		}
		return seq.Err()
	},
}
