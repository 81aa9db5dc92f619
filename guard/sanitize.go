// guard/sanitize.go
package guard

import (
	"regexp"
	"strings"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)

	entityEscaper = strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		"&", "&amp;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
)

// Sanitize strips every substring that looks like an HTML tag, then escapes
// < > & " and ' as HTML entities.
//
// It is one-way: sanitizing twice escapes the '&' of the entities produced by
// the first pass.
func Sanitize(input string) string {
	return entityEscaper.Replace(tagPattern.ReplaceAllString(input, ""))
}

// SanitizeEntries returns a copy of entries with every value sanitized,
// except the fields for which reserved reports true.
func SanitizeEntries(entries []Entry, reserved func(name string) bool) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if reserved != nil && reserved(e.Name) {
			out = append(out, e)
			continue
		}
		out = append(out, Entry{Name: e.Name, Value: Sanitize(e.Value)})
	}
	return out
}
