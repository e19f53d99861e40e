// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
	"unicode"
)

// QueryParam trims surrounding whitespace from a query or form value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Slug turns a title into a URL-safe identifier: lowercase ASCII letters,
// digits and single hyphens, with no leading or trailing hyphen.
//
//	"Senior Counsel (Torts)" -> "senior-counsel-torts"
func Slug(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

// IDList splits a comma-separated identifier list, trimming each entry and
// dropping empties and duplicates while keeping first-seen order.
func IDList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
