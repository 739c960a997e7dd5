package commands

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var archiveDb *string

func init() {
	archiveDb = archiveCmd.Flags().String("db", "archive.db", "The database to write posts to.")
	rootCmd.AddCommand(archiveCmd)
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS posts (
	platform    TEXT NOT NULL,
	webtoon_id  INTEGER NOT NULL,
	episode_no  INTEGER NOT NULL,
	post_id     TEXT NOT NULL,
	poster      TEXT NOT NULL,
	body        TEXT NOT NULL,
	upvotes     INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	deleted     INTEGER NOT NULL,
	reply_count INTEGER NOT NULL,
	PRIMARY KEY (platform, webtoon_id, episode_no, post_id)
);
`

var archiveCmd = &cobra.Command{
	Use:   "archive <id> [--db <path/to/archive.db>]",
	Short: "Stores every post of every episode of a series into sqlite.",
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

		db, err := sql.Open("sqlite", *archiveDb)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.Exec(archiveSchema); err != nil {
			return err
		}

		ctx := cmd.Context()
		w, err := client.Webtoon(ctx, id, kindFlag())
		if err != nil {
			return err
		}

		insert, err := db.Prepare(`
			INSERT OR REPLACE INTO posts
			(platform, webtoon_id, episode_no, post_id, poster, body, upvotes, created_at, deleted, reply_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer insert.Close()

		stored := 0
		episodes := w.Episodes()
		for episodes.Next(ctx) {
			ep := episodes.Item()

			posts := ep.Posts()
			for posts.Next(ctx) {
				post := posts.Item()
				_, err := insert.ExecContext(ctx,
					client.Platform().String(), w.ID(), ep.Number, post.ID,
					post.Poster.Name, post.Body, post.Upvotes,
					post.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
					post.Deleted, post.ReplyCount,
				)
				if err != nil {
					return err
				}
				stored++
			}
			if err := posts.Err(); err != nil {
				return err
			}
			slog.Info("archived episode", "episode", ep.Number, "total_posts", stored)
		}
		if err := episodes.Err(); err != nil {
			return err
		}

		slog.Info("archive complete", "posts", stored, "db", *archiveDb)
		return nil
	},
}
