package comics

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"webtoonkit/lib/paginate"
)

// Episode is one entry of a series' episode listing. Values are
// immutable once constructed by an adapter.
type Episode struct {
	client    *Client
	webtoonID int
	kind      Kind

	// Number is the platform-assigned sequence number, unique within
	// a series. Listings are normalized so numbers ascend.
	Number int
	Title  string
	// Season is pattern-matched out of the episode title when the
	// platform does not expose it structurally. 0 means no season
	// marker was present.
	Season int
	// Published is the publish timestamp; the zero time when the
	// listing did not carry one.
	Published time.Time
	Views     uint64
	// Upcoming marks episodes announced but not yet readable.
	Upcoming bool
}

// Posts returns a lazy sequence over the episode's top-level comments.
// Ordering follows the platform (typically newest first); no
// cross-page ordering is guaranteed.
func (e Episode) Posts() *paginate.Seq[Post] {
	return paginate.New(paginate.Token{}, func(ctx context.Context, tok paginate.Token) (paginate.Page[Post], error) {
		return e.client.adapter.postPage(ctx, e, tok)
	})
}

var seasonMarker = regexp.MustCompile(`(?i)\[\s*season\s+(\d+)\s*\]`)

// seasonFromTitle extracts a "[Season N]" marker from an episode
// title. Absence is normal and yields 0.
func seasonFromTitle(title string) int {
	groups := seasonMarker.FindStringSubmatch(title)
	if len(groups) < 2 {
		return 0
	}
	season, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0
	}
	return season
}
