// Package identity derives the stable deduplication fingerprint of a listing.
package identity

import (
	"encoding/base64"
	"strings"
	"unicode"
)

// Generate returns the fingerprint for a posting announced by organization on
// publishedDate. Punctuation and whitespace in the title do not affect the
// result, so re-scrapes of the same posting map onto the same record.
func Generate(organization, title, publishedDate string) string {
	raw := organization + "|" + CleanTitle(title) + "|" + publishedDate
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// CleanTitle keeps only Han ideographs and ASCII letters and digits.
func CleanTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return unicode.Is(unicode.Han, r)
	}
}
