package comics

import (
	"errors"
	"fmt"

	"webtoonkit/lib/restyutil"
)

// ErrNotFound means the requested identity does not exist upstream.
// It is an empty-result signal, not a hard failure, and is never
// retried.
var ErrNotFound = errors.New("not found on platform")

// ErrRateLimited surfaces after the transport's retry budget against
// 429 responses is exhausted.
var ErrRateLimited = restyutil.ErrRateLimited

// ErrUnauthenticated is returned by operations that need a session
// token when the client was built without one or upstream rejected it.
var ErrUnauthenticated = restyutil.ErrUnauthenticated

// ErrUpstream reports an error status from the platform that carries
// no structured meaning, typically a 5xx. It is distinct from
// ParseError: the platform is failing, not changed.
var ErrUpstream = errors.New("upstream failure")

func upstreamErr(platform Platform, endpoint string, status int) error {
	return fmt.Errorf("%s: %s: %w: status %d", platform, endpoint, ErrUpstream, status)
}

// ParseError reports that an upstream response did not have the
// structure this library expects: a required selector matched nothing,
// a required JSON field was absent, or the API schema version moved.
//
// Retrying cannot fix a structural mismatch, so a ParseError is never
// retried. Optional fields never produce one; they degrade to absent.
type ParseError struct {
	Platform Platform
	Endpoint string
	Field    string
	Detail   string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s: unexpected structure for %q", e.Platform, e.Endpoint, e.Field)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func parseErr(platform Platform, endpoint, field, detail string) error {
	return &ParseError{Platform: platform, Endpoint: endpoint, Field: field, Detail: detail}
}
