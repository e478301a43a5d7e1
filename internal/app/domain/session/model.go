package session

import "time"

// Session is an opaque bearer token exchanged at login. The ID itself is the
// credential presented in the Authorization header.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
