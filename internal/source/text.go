package source

import (
	"net/url"
	"regexp"
	"strings"
)

// CleanText folds non-breaking spaces and runs of whitespace into single spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u3000", " ")
	return strings.Join(strings.Fields(s), " ")
}

// ResolveLink resolves href against base. It returns false when href is not
// a usable link (empty, a fragment or a javascript: handler).
func ResolveLink(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		return ref.String(), true
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", false
	}
	return b.ResolveReference(ref).String(), true
}

var detailIDPattern = regexp.MustCompile(`\d{3,}`)

// DetailID returns the first numeric identifier of at least three digits
// found in candidates, in order.
func DetailID(candidates ...string) string {
	for _, c := range candidates {
		if id := detailIDPattern.FindString(c); id != "" {
			return id
		}
	}
	return ""
}
