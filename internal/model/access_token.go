package model

import "time"

// AccessToken is the persisted record behind an issued bearer token.
// The token's jti claim equals ID.
type AccessToken struct {
	ID        string
	UserID    int64
	Name      string
	Revoked   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive returns true if the token is neither revoked nor expired.
func (t *AccessToken) IsActive(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Identity is the authenticated caller of a request.
// It is injected into the request context by the auth middleware
// and passed explicitly to service calls.
type Identity struct {
	UserID  int64
	TokenID string
}
