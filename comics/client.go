package comics

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"webtoonkit/lib/entitycache"
	"webtoonkit/lib/restyutil"
)

var tracer = otel.Tracer("webtoonkit/comics")

const userAgent = "webtoonkit/0.1"

type Options struct {
	Platform Platform
	// BaseURL overrides the platform's default endpoint. Tests point
	// this at an httptest server.
	BaseURL string
	// Session is the platform session token. Optional; without it,
	// operations that act on behalf of a user return
	// ErrUnauthenticated.
	Session string
	// MaxConcurrent caps in-flight requests per client.
	MaxConcurrent int
	// MaxAttempts bounds the transport retry loop, first try included.
	MaxAttempts int
	// MinRequestDelay spaces successive requests apart. Some
	// endpoints throttle on request cadence rather than volume.
	MinRequestDelay time.Duration
}

type webtoonKey struct {
	id   int
	kind Kind
}

// Client is the entry point to one platform. It is safe for
// concurrent use; all fetches spawned from it share one connection
// pool, one session token, one admission limit, and one entity cache.
type Client struct {
	platform Platform
	http     *restyutil.Client
	adapter  adapter

	meta     *entitycache.Cache[webtoonKey, meta]
	creators *entitycache.Cache[string, Creator]
}

func NewClient(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		switch opts.Platform {
		case PlatformNaver:
			baseURL = "https://comic.naver.com"
		default:
			baseURL = "https://www.webtoons.com"
		}
	}

	var session *http.Cookie
	if opts.Session != "" {
		name := "NEO_SES"
		if opts.Platform == PlatformNaver {
			name = "NID_SES"
		}
		session = &http.Cookie{Name: name, Value: opts.Session}
	}

	httpClient := restyutil.New(restyutil.Options{
		BaseURL:         baseURL,
		UserAgent:       userAgent,
		Session:         session,
		MaxConcurrent:   int64(opts.MaxConcurrent),
		MinRequestDelay: opts.MinRequestDelay,
		Retry:           restyutil.RetryPolicy{MaxAttempts: opts.MaxAttempts},
	})

	c := &Client{
		platform: opts.Platform,
		http:     httpClient,
		meta:     entitycache.New[webtoonKey, meta](),
		creators: entitycache.New[string, Creator](),
	}

	switch opts.Platform {
	case PlatformNaver:
		c.adapter = &naverAdapter{http: httpClient}
	default:
		c.adapter = &webtoonsAdapter{http: httpClient}
	}
	return c, nil
}

// Platform reports which upstream this client talks to.
func (c *Client) Platform() Platform {
	return c.platform
}

// Webtoon resolves the series identified by (id, kind). It returns
// ErrNotFound when the id does not exist in that section.
//
// The series' landing page is fetched through the entity cache:
// concurrent calls for the same identity collapse into a single
// request, and once resolved no further network activity happens for
// its metadata.
func (c *Client) Webtoon(ctx context.Context, id int, kind Kind) (*Webtoon, error) {
	ctx, span := tracer.Start(ctx, "client:Webtoon")
	defer span.End()

	w := &Webtoon{client: c, id: id, kind: kind}
	if _, err := c.snapshot(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Creator resolves a creator by their platform identity. A creator
// whose profile page is disabled is still a valid result, with
// HasProfile false; ErrNotFound means the identity itself is unknown.
func (c *Client) Creator(ctx context.Context, id string) (Creator, error) {
	ctx, span := tracer.Start(ctx, "client:Creator")
	defer span.End()

	return c.creators.Get(ctx, id, func(ctx context.Context) (Creator, error) {
		return c.adapter.fetchCreator(ctx, id)
	})
}

// Viewer returns information about the user the session token belongs
// to. Without a session token it fails with ErrUnauthenticated before
// any network I/O.
func (c *Client) Viewer(ctx context.Context) (Viewer, error) {
	ctx, span := tracer.Start(ctx, "client:Viewer")
	defer span.End()

	if err := c.http.RequireSession(); err != nil {
		return Viewer{}, err
	}
	return c.adapter.fetchViewer(ctx)
}

func (c *Client) snapshot(ctx context.Context, w *Webtoon) (meta, error) {
	return c.meta.Get(ctx, webtoonKey{id: w.id, kind: w.kind}, func(ctx context.Context) (meta, error) {
		return c.adapter.fetchMeta(ctx, w.id, w.kind)
	})
}
