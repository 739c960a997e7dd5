package comics

import (
	"context"

	"webtoonkit/lib/paginate"
)

// Webtoon is a handle to one series. Identity is immutable; metadata
// comes from a snapshot fetched lazily, exactly once, through the
// client's entity cache. There is no TTL: once populated, accessors
// answer from the snapshot without further network activity.
type Webtoon struct {
	client *Client
	id     int
	kind   Kind
}

func (w *Webtoon) ID() int {
	return w.id
}

func (w *Webtoon) Kind() Kind {
	return w.kind
}

// Title returns the series title. A landing page without a title is a
// platform structure change and surfaces as *ParseError at fetch time.
func (w *Webtoon) Title(ctx context.Context) (string, error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return "", err
	}
	return m.Title, nil
}

// Creators returns the creators credited on the series page.
func (w *Webtoon) Creators(ctx context.Context) ([]Creator, error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return append([]Creator(nil), m.Creators...), nil
}

// Genres returns the genre tags the platform lists for the series.
func (w *Webtoon) Genres(ctx context.Context) ([]string, error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), m.Genres...), nil
}

// Summary returns the series blurb.
func (w *Webtoon) Summary(ctx context.Context) (string, error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return "", err
	}
	return m.Summary, nil
}

// Views returns the aggregate view counter as the platform displays
// it, which may be a rounded figure.
func (w *Webtoon) Views(ctx context.Context) (uint64, error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return 0, err
	}
	return m.Views, nil
}

// Subscribers returns the subscriber counter as displayed.
func (w *Webtoon) Subscribers(ctx context.Context) (uint64, error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return 0, err
	}
	return m.Subscribers, nil
}

// Thumbnail returns the thumbnail image url. Not every series has
// one; ok is false when the platform exposed none.
func (w *Webtoon) Thumbnail(ctx context.Context) (url string, ok bool, err error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return "", false, err
	}
	return m.Thumbnail, m.Thumbnail != "", nil
}

// Banner returns the landing-page banner image url. Canvas
// submissions have none; ok is false in that case.
func (w *Webtoon) Banner(ctx context.Context) (url string, ok bool, err error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return "", false, err
	}
	return m.Banner, m.Banner != "", nil
}

// Schedule returns the release schedule text for curated stories,
// e.g. "MON, THU". Canvas submissions have no schedule; ok is false.
func (w *Webtoon) Schedule(ctx context.Context) (schedule string, ok bool, err error) {
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return "", false, err
	}
	return m.Schedule, m.Schedule != "", nil
}

// IsCompleted reports whether the series has finished publishing.
// Canvas submissions always report false.
func (w *Webtoon) IsCompleted(ctx context.Context) (bool, error) {
	if w.kind == KindCanvas {
		return false, nil
	}
	m, err := w.client.snapshot(ctx, w)
	if err != nil {
		return false, err
	}
	return m.Completed, nil
}

// Episodes returns a lazy sequence over every published episode,
// yielded in strictly ascending episode number regardless of the
// order the platform lists them in. Pages are fetched one at a time
// as the sequence is consumed; listings are never cached.
func (w *Webtoon) Episodes() *paginate.Seq[Episode] {
	return paginate.New(paginate.Token{}, func(ctx context.Context, tok paginate.Token) (paginate.Page[Episode], error) {
		return w.client.adapter.episodePage(ctx, w, tok)
	})
}
