package models

import "time"

// Session is a server-side session row. Only the SHA-256 of the client token
// is stored, bound to the account id.
type Session struct {
	TokenHash string
	UserID    int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
