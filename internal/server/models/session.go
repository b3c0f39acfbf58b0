package models

import "time"

// Session is the server-side record behind a signed token. The ID equals
// the token's jti claim.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
