package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Prints the metadata of a series.",
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

		title, err := w.Title(ctx)
		if err != nil {
			return err
		}
		creators, err := w.Creators(ctx)
		if err != nil {
			return err
		}
		genres, err := w.Genres(ctx)
		if err != nil {
			return err
		}
		summary, err := w.Summary(ctx)
		if err != nil {
			return err
		}
		completed, err := w.IsCompleted(ctx)
		if err != nil {
			return err
		}

		names := make([]string, len(creators))
		for i, c := range creators {
			names[i] = c.Name
		}

		fmt.Printf("%s (#%d, %s)\n", title, w.ID(), w.Kind())
		fmt.Printf("by:        %s\n", strings.Join(names, ", "))
		fmt.Printf("genres:    %s\n", strings.Join(genres, ", "))
		fmt.Printf("completed: %v\n", completed)
		if banner, ok, _ := w.Banner(ctx); ok {
			fmt.Printf("banner:    %s\n", banner)
		}
		fmt.Println(summary)
		return nil
	},
}
