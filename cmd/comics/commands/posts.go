package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var postsWithReplies *bool

func init() {
	postsWithReplies = postsCmd.Flags().Bool("replies", false, "Also print replies under each post.")
	rootCmd.AddCommand(postsCmd)
}

var postsCmd = &cobra.Command{
	Use:   "posts <id> <episode>",
	Short: "Prints the top-level comments of one episode.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid series id %q: %w", args[0], err)
		}
		episodeNo, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid episode number %q: %w", args[1], err)
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

		episodes := w.Episodes()
		for episodes.Next(ctx) {
			ep := episodes.Item()
			if ep.Number != episodeNo {
				continue
			}

			posts := ep.Posts()
			for posts.Next(ctx) {
				post := posts.Item()
				if post.Deleted {
					fmt.Printf("[deleted] (%d replies)\n", post.ReplyCount)
				} else {
					fmt.Printf("%s: %s (+%d, %d replies)\n",
						post.Poster.Name, post.Body, post.Upvotes, post.ReplyCount)
				}
				if !*postsWithReplies {
					continue
				}
				replies := post.Replies()
				for replies.Next(ctx) {
					r := replies.Item()
					fmt.Printf("    %s: %s (+%d)\n", r.Poster.Name, r.Body, r.Upvotes)
				}
				if err := replies.Err(); err != nil {
					return err
				}
			}
			return posts.Err()
		}
		if err := episodes.Err(); err != nil {
			return err
		}
		return fmt.Errorf("episode %d not found in series %d", episodeNo, id)
	},
}
