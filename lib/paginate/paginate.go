// Package paginate provides lazy, forward-only iteration over paged
// listings. It normalizes the two pagination protocols the platform
// adapters deal with, integer page indexes and opaque continuation
// cursors, behind one sequence type.
package paginate

import "context"

type tokenKind uint8

const (
	tokenNone tokenKind = iota
	tokenNumber
	tokenCursor
)

// Token identifies the next page of a listing. The zero Token means
// there is no next page.
//
// A cursor token is an opaque server-issued string; it is never parsed
// or constructed from parts on the client side.
type Token struct {
	kind   tokenKind
	number int
	cursor string
}

func NumberToken(page int) Token {
	return Token{kind: tokenNumber, number: page}
}

func CursorToken(cursor string) Token {
	if cursor == "" {
		return Token{}
	}
	return Token{kind: tokenCursor, cursor: cursor}
}

// Number reports the page index carried by the token, if any.
func (t Token) Number() (int, bool) {
	return t.number, t.kind == tokenNumber
}

// Cursor reports the continuation cursor carried by the token, if any.
func (t Token) Cursor() (string, bool) {
	return t.cursor, t.kind == tokenCursor
}

func (t Token) IsZero() bool {
	return t.kind == tokenNone
}

// Page is one fetched page of a listing. A zero Next token marks the
// final page.
type Page[T any] struct {
	Items []T
	Next  Token
}

// FetchFunc fetches the page identified by tok. It may block on
// backoff or admission control, so implementations must honor ctx.
type FetchFunc[T any] func(ctx context.Context, tok Token) (Page[T], error)

// Seq is a finite, forward-only sequence of items produced one page at
// a time. Page N+1 is never fetched before page N's items have all
// been yielded, so memory stays bounded to a single page.
//
// Usage follows the sql.Rows idiom:
//
//	for seq.Next(ctx) {
//	    item := seq.Item()
//	    ...
//	}
//	if err := seq.Err(); err != nil { ... }
//
// An error ends the sequence; items yielded before it remain valid.
type Seq[T any] struct {
	fetch   FetchFunc[T]
	next    Token
	page    []T
	pos     int
	item    T
	err     error
	started bool
	done    bool
}

// New returns a sequence starting at the given token. The first page
// is always fetched, even for a zero start token: cursor-paginated
// listings open with a cursor-less request and only later pages carry
// a continuation token. No fetch happens until the first call to Next.
func New[T any](start Token, fetch FetchFunc[T]) *Seq[T] {
	return &Seq[T]{fetch: fetch, next: start}
}

// Empty returns an exhausted sequence. It performs no fetches.
func Empty[T any]() *Seq[T] {
	return &Seq[T]{done: true}
}

// Next advances to the next item, fetching the next page when the
// current one is drained. It returns false when the sequence is
// exhausted or a fetch failed; check Err to distinguish.
func (s *Seq[T]) Next(ctx context.Context) bool {
	if s.done {
		return false
	}

	for s.pos >= len(s.page) {
		if s.started && s.next.IsZero() {
			// drained the final page
			s.done = true
			return false
		}

		page, err := s.fetch(ctx, s.next)
		s.started = true
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		s.page = page.Items
		if s.page == nil {
			s.page = []T{}
		}
		s.pos = 0
		s.next = page.Next

		if len(s.page) == 0 {
			s.done = true
			return false
		}
	}

	s.item = s.page[s.pos]
	s.pos++
	return true
}

// Item returns the item produced by the last successful call to Next.
func (s *Seq[T]) Item() T {
	return s.item
}

// Err returns the error that ended the sequence, if any.
func (s *Seq[T]) Err() error {
	return s.err
}

// Collect drains the remainder of the sequence into a slice. Items
// yielded before a fetch error are returned alongside that error.
func Collect[T any](ctx context.Context, s *Seq[T]) ([]T, error) {
	var items []T
	for s.Next(ctx) {
		items = append(items, s.Item())
	}
	return items, s.Err()
}
