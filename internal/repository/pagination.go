package repository

import (
	"strings"

	"github.com/maxviazov/user-records-service/internal/model"
)

// Window is a skip/limit slice over a filtered result set.
// Skip is int64 because large page numbers are accepted without an upper bound.
type Window struct {
	Skip  int64
	Limit int
}

// UserFilter selects records for listing and counting.
// An empty Search matches every record; otherwise Search is a literal,
// case-insensitive substring looked up in name, email and address.
type UserFilter struct {
	Search string
}

// MatchAll reports whether the filter selects the whole collection.
func (f UserFilter) MatchAll() bool { return f.Search == "" }

// Matches evaluates the filter in process. Backends with a native query
// language translate the filter instead; the memory store uses this directly.
func (f UserFilter) Matches(u model.User) bool {
	if f.MatchAll() {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, field := range []string{u.Name, u.Email, u.Address} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
