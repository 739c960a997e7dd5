package comics

import (
	"context"
	"time"

	"webtoonkit/lib/paginate"
)

// Poster identifies who wrote a post or reply.
type Poster struct {
	ID   string
	Name string
}

// Post is a top-level comment on an episode. A deleted post is kept
// as a tombstone: identity and thread position survive, the body and
// poster may be blanked, and Deleted is true.
type Post struct {
	client    *Client
	webtoonID int
	kind      Kind
	episodeNo int

	ID        string
	Poster    Poster
	Body      string
	Upvotes   int
	CreatedAt time.Time
	Deleted   bool
	// ReplyCount is the platform's count of child replies. It gates
	// whether Replies issues any requests at all.
	ReplyCount int
}

// Replies returns a lazy sequence over the post's replies. A post
// known to have zero replies short-circuits: the sequence is empty
// and no adapter call is ever made. This holds for deleted posts too.
func (p Post) Replies() *paginate.Seq[Reply] {
	if p.ReplyCount == 0 {
		return paginate.Empty[Reply]()
	}
	return paginate.New(paginate.Token{}, func(ctx context.Context, tok paginate.Token) (paginate.Page[Reply], error) {
		return p.client.adapter.replyPage(ctx, p, tok)
	})
}

// Reply is a child of a Post. Replies have no children of their own.
type Reply struct {
	ID        string
	Poster    Poster
	Body      string
	Upvotes   int
	CreatedAt time.Time
	Deleted   bool
}
