// Package rss builds and decodes the public episode feed a series
// exposes. It consumes only the identity of a comics.Webtoon; feed
// contents cover recently published, freely readable episodes.
package rss

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"webtoonkit/comics"
)

type Item struct {
	Title     string
	Link      string
	Published time.Time
}

type Feed struct {
	Title       string
	Description string
	Items       []Item
}

// FeedURL builds the feed endpoint for a series. baseURL defaults to
// the public platform host when empty.
func FeedURL(baseURL string, w *comics.Webtoon) string {
	if baseURL == "" {
		baseURL = "https://www.webtoons.com"
	}
	query := url.Values{}
	query.Set("title_no", fmt.Sprintf("%d", w.ID()))
	if w.Kind() == comics.KindCanvas {
		return baseURL + "/en/canvas/rss?" + query.Encode()
	}
	return baseURL + "/en/rss?" + query.Encode()
}

// Fetch downloads and decodes the feed at feedURL.
func Fetch(ctx context.Context, feedURL string) (Feed, error) {
	parsed, err := gofeed.NewParser().ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Feed{}, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	return fromParsed(parsed), nil
}

// FetchWebtoon is a convenience over FeedURL and Fetch.
func FetchWebtoon(ctx context.Context, baseURL string, w *comics.Webtoon) (Feed, error) {
	return Fetch(ctx, FeedURL(baseURL, w))
}

func fromParsed(parsed *gofeed.Feed) Feed {
	feed := Feed{
		Title:       parsed.Title,
		Description: parsed.Description,
	}
	for _, item := range parsed.Items {
		out := Item{Title: item.Title, Link: item.Link}
		if item.PublishedParsed != nil {
			out.Published = *item.PublishedParsed
		}
		feed.Items = append(feed.Items, out)
	}
	return feed
}
