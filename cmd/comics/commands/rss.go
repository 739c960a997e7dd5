package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"webtoonkit/comics/rss"
)

func init() {
	rootCmd.AddCommand(rssCmd)
}

var rssCmd = &cobra.Command{
	Use:   "rss <id>",
	Short: "Prints the public episode feed of a series.",
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

		feed, err := rss.FetchWebtoon(ctx, flagBaseURL, w)
		if err != nil {
			return err
		}
		fmt.Println(feed.Title)
		for _, item := range feed.Items {
			line := item.Title
			if !item.Published.IsZero() {
				line += "  (" + item.Published.Format("2006-01-02") + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}
