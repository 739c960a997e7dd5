// Package comics provides structured, read-only access to webtoon
// series, episodes, and comment threads hosted on two independent
// platforms. One exposes its data as server-rendered HTML, the other
// as JSON endpoints with cursor pagination; both feed the same domain
// model through a platform adapter chosen at client construction.
//
// All listing operations return lazy sequences (lib/paginate) and all
// expensive per-entity pages are fetched once and memoized with
// single-flight semantics (lib/entitycache). The package issues no
// write operations of any kind.
package comics

// Platform selects which upstream a Client talks to.
type Platform int

const (
	// PlatformWebtoons is the HTML-rendered platform. Fields are
	// extracted with CSS selectors; listings use page numbers.
	PlatformWebtoons Platform = iota
	// PlatformNaver is the JSON platform. Comment listings use opaque
	// continuation cursors.
	PlatformNaver
)

func (p Platform) String() string {
	switch p {
	case PlatformWebtoons:
		return "webtoons"
	case PlatformNaver:
		return "naver"
	}
	return "unknown"
}

// Kind discriminates the section a series was published under. The
// same numeric id can exist in both sections, so identity is the
// (id, kind) pair.
type Kind int

const (
	// KindOriginal is a platform-curated story.
	KindOriginal Kind = iota
	// KindCanvas is an independent submission.
	KindCanvas
)

func (k Kind) String() string {
	if k == KindCanvas {
		return "canvas"
	}
	return "original"
}
