package comics

import (
	"context"

	"webtoonkit/lib/paginate"
)

// meta is the metadata snapshot scraped from a series' landing page or
// info endpoint. It is populated once per (id, kind) and cached for
// the lifetime of the client; empty strings and zero counts mean the
// platform did not expose the field, which is a valid state for every
// field except Title.
type meta struct {
	Title       string
	Creators    []Creator
	Genres      []string
	Summary     string
	Views       uint64
	Subscribers uint64
	// Thumbnail and Banner are optional image references; "" = absent.
	Thumbnail string
	Banner    string
	// Schedule is the release schedule text for curated stories, e.g.
	// "MON, THU" or "COMPLETED". Canvas submissions have none.
	Schedule  string
	Completed bool
}

// adapter is the closed capability set each platform implements. The
// variant is picked once in NewClient; nothing registers adapters at
// runtime.
//
// Page fetches return partially-normalized pages: items are domain
// values already, ordering inside a page is normalized (episodes
// ascending by number), and the Next token encodes whatever the
// platform's pagination protocol needs.
type adapter interface {
	fetchMeta(ctx context.Context, id int, kind Kind) (meta, error)
	episodePage(ctx context.Context, w *Webtoon, tok paginate.Token) (paginate.Page[Episode], error)
	postPage(ctx context.Context, ep Episode, tok paginate.Token) (paginate.Page[Post], error)
	replyPage(ctx context.Context, p Post, tok paginate.Token) (paginate.Page[Reply], error)
	fetchCreator(ctx context.Context, id string) (Creator, error)
	fetchViewer(ctx context.Context) (Viewer, error)
}
