package entity

import "time"

// Session represents an authenticated browser session.
// It carries the principal attributes needed by protected handlers so they do not hit the user store.
type Session struct {
	ID        string    // Opaque session identifier stored in the session cookie
	UserID    uint      // Associated user ID
	Email     string    // Principal email at login time
	Name      string    // Principal name at login time
	Provider  string    // "local" or the federation registration id
	UserAgent string    // Client's User-Agent header
	IPAddress string    // Client's IP address
	CreatedAt time.Time // Session creation time
	ExpiresAt time.Time // Session expiration time
}

// IsExpired returns true if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session is expired at the given instant.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
