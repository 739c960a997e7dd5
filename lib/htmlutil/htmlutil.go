// Package htmlutil holds small helpers for pulling data out of
// server-rendered markup where it is not addressable by selector
// alone: style attributes carrying image urls, free text with noisy
// whitespace, grouped counters like "3.8M".
package htmlutil

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText collapses inner whitespace and strips non-printable runes
// and surrounding space.
func CleanText(s string) string {
	var b strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			b.WriteRune(c)
		} else {
			// newlines and control runes become plain spaces so the
			// collapse below can merge them
			b.WriteRune(' ')
		}
	}
	cleaned := strings.TrimSpace(b.String())
	return innerWhitespace.ReplaceAllString(cleaned, " ")
}

var backgroundImage = regexp.MustCompile(`background(?:-image)?\s*:\s*url\(['"]?([^'")]+)['"]?\)`)

// BackgroundImageURL extracts the url carried by a background-image
// declaration in an inline style attribute. Some platforms encode the
// only copy of a thumbnail url this way. Returns "" when the style
// holds no image.
func BackgroundImageURL(style string) string {
	groups := backgroundImage.FindStringSubmatch(style)
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1])
}

// ParseGroupedCount parses counters the way platforms render them:
// "1,234", "3.8M", "12.5K", "1.4B". Returns false when the text is
// not a counter.
func ParseGroupedCount(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	multiplier := uint64(1)
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = 1_000
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case 'B', 'b':
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return uint64(value * float64(multiplier)), true
}
