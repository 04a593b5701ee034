// Package cover derives a book cover image URL from an ISBN.
package cover

import (
	"fmt"
	"strings"
)

// DefaultURLFormat is the Open Library medium-size cover endpoint.
const DefaultURLFormat = "https://covers.openlibrary.org/b/isbn/%s-M.jpg"

// Lookup builds cover URLs from a format string with a single %s verb.
type Lookup struct {
	format string
}

// New returns a Lookup for format, falling back to DefaultURLFormat when
// format does not contain exactly one %s.
func New(format string) *Lookup {
	if strings.Count(format, "%s") != 1 {
		format = DefaultURLFormat
	}
	return &Lookup{format: format}
}

// URL returns the cover reference for isbn, or nil when none can be derived.
// It never fails: callers store whatever comes back.
func (l *Lookup) URL(isbn string) *string {
	isbn = normalize(isbn)
	if isbn == "" {
		return nil
	}
	u := fmt.Sprintf(l.format, isbn)
	return &u
}

// normalize strips hyphens and spaces and rejects anything that is not an
// ISBN-10 or ISBN-13 shape.
func normalize(isbn string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(isbn) {
		switch {
		case r == '-' || r == ' ':
			continue
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		default:
			return ""
		}
	}
	s := b.String()
	if len(s) != 10 && len(s) != 13 {
		return ""
	}
	// X is only valid as the ISBN-10 check digit.
	if i := strings.IndexByte(s, 'X'); i >= 0 && (len(s) != 10 || i != 9) {
		return ""
	}
	return s
}
