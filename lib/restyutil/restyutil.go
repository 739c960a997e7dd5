// Package restyutil wraps a resty client with the cross-cutting
// request policies every platform adapter shares: session cookie
// injection, a per-client admission limit on in-flight requests,
// minimum inter-request pacing, and bounded retry with exponential
// backoff for rate-limited and transient failures.
package restyutil

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("webtoonkit/restyutil")

// ErrRateLimited is returned once the retry budget against 429
// responses is exhausted. Trying again later is the only remedy.
var ErrRateLimited = errors.New("rate limited by upstream")

// ErrUnauthenticated is returned when an operation needs a session
// token and the client was built without one, or upstream rejected it.
var ErrUnauthenticated = errors.New("session token absent or rejected")

type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.InitialWait <= 0 {
		p.InitialWait = time.Second
	}
	if p.MaxWait <= 0 {
		p.MaxWait = 30 * time.Second
	}
	return p
}

type Options struct {
	BaseURL   string
	UserAgent string
	// Session, when non-nil, is attached to every outgoing request.
	Session *http.Cookie
	// MaxConcurrent caps simultaneous in-flight requests. Defaults to 4.
	MaxConcurrent int64
	// MinRequestDelay spaces successive requests apart regardless of
	// the retry policy. Some endpoints throttle on cadence, not volume.
	MinRequestDelay time.Duration
	Retry           RetryPolicy
	// Transport overrides the underlying RoundTripper. Tests use this.
	Transport http.RoundTripper
}

// Client is safe for concurrent use. Every call through it may sleep
// on pacing, admission, or backoff; treat calls as long-running and
// pass a cancellable context.
type Client struct {
	http       *resty.Client
	limiter    *semaphore.Weighted
	retry      RetryPolicy
	hasSession bool

	// pacer spaces successive requests apart; nil when no minimum
	// delay was configured.
	pacer *rate.Limiter

	// sleep is swapped out by tests
	sleep func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}
	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Session != nil {
		client.SetCookie(opts.Session)
	}
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	} else {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetTimeout(time.Second * 30)

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	var pacer *rate.Limiter
	if opts.MinRequestDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(opts.MinRequestDelay), 1)
	}

	return &Client{
		http:       client,
		limiter:    semaphore.NewWeighted(maxConcurrent),
		retry:      opts.Retry.withDefaults(),
		hasSession: opts.Session != nil,
		pacer:      pacer,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasSession reports whether a session token was configured.
func (c *Client) HasSession() bool {
	return c.hasSession
}

// RequireSession fails fast with ErrUnauthenticated when no session
// token was configured. No network I/O happens.
func (c *Client) RequireSession() error {
	if !c.hasSession {
		return ErrUnauthenticated
	}
	return nil
}

// pace blocks until at least MinRequestDelay has passed since the
// previous request left this client.
func (c *Client) pace(ctx context.Context) error {
	if c.pacer == nil {
		return nil
	}
	return c.pacer.Wait(ctx)
}

// RequestFunc customizes a request before it is sent.
type RequestFunc func(r *resty.Request) *resty.Request

// Get issues a GET against url (resolved on the base URL) under the
// client's admission, pacing, and retry policies.
//
// Responses with status 429 and transport-level failures are retried
// with jittered exponential backoff up to the attempt cap; every other
// response, success or not, is handed back to the caller unchanged.
func (c *Client) Get(ctx context.Context, url string, fns ...RequestFunc) (*resty.Response, error) {
	return c.execute(ctx, resty.MethodGet, url, fns...)
}

func (c *Client) execute(ctx context.Context, method, url string, fns ...RequestFunc) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "http "+method)
	defer span.End()
	span.SetAttributes(attribute.String("url.path", url))

	if err := c.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.limiter.Release(1)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialWait
	policy.MaxInterval = c.retry.MaxWait
	policy.MaxElapsedTime = 0
	policy.Reset()

	var res *resty.Response
	var lastWait time.Duration

	for attempt := 1; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		req := c.http.R().SetContext(ctx)
		for _, fn := range fns {
			req = fn(req)
		}

		var err error
		res, err = req.Execute(method, url)

		switch {
		case err == nil && res.StatusCode() != http.StatusTooManyRequests:
			span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode()))
			return res, nil

		case attempt >= c.retry.MaxAttempts:
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "request failed after retries")
				return nil, err
			}
			span.SetStatus(codes.Error, "retry budget exhausted against 429")
			return nil, ErrRateLimited
		}

		wait := policy.NextBackOff()
		// jitter must never walk the schedule backwards
		if wait < lastWait {
			wait = lastWait
		}
		lastWait = wait

		slog.DebugContext(ctx, "retrying request",
			"method", method,
			"url", url,
			"attempt", attempt,
			"wait", wait,
			"err", err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}
