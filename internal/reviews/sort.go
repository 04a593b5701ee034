package reviews

import (
	"strings"

	"github.com/crucial707/bookshelf/internal/apperr"
)

var (
	sortFields = map[string]bool{"id": true, "date": true, "title": true}
	sortOrders = map[string]bool{"asc": false, "desc": true}
)

// SortSpec is a validated ordering request.
type SortSpec struct {
	Field string
	Desc  bool
}

// ParseSort validates a user-supplied field and direction. field must be one
// of id, date or title; order must be asc or desc in any letter case.
func ParseSort(field, order string) (SortSpec, error) {
	if !sortFields[field] {
		return SortSpec{}, apperr.ErrInvalidSortParameter
	}
	desc, ok := sortOrders[strings.ToLower(order)]
	if !ok {
		return SortSpec{}, apperr.ErrInvalidSortParameter
	}
	return SortSpec{Field: field, Desc: desc}, nil
}
