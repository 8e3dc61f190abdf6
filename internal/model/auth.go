package model

import (
	"context"
	"time"
)

// Token is a cached provider access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidAt reports whether the token can still be used at now, keeping a
// safety margin before expiry.
func (t *Token) ValidAt(now time.Time, margin time.Duration) bool {
	return t != nil && t.AccessToken != "" && t.ExpiresAt.After(now.Add(margin))
}

type TokenStore interface {
	// Load returns the cached token, or nil when none is stored.
	Load(ctx context.Context) (*Token, error)

	// Save stores the token until its expiry.
	Save(ctx context.Context, token Token) error

	// Delete drops the cached token, forcing the next caller to refresh.
	Delete(ctx context.Context) error
}

// Session is a logged-in dashboard session.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionRepository interface {
	// Create stores a new session for username and returns it.
	Create(ctx context.Context, username string) (*Session, error)

	// Get returns the session, or nil when it does not exist or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete ends the session.
	Delete(ctx context.Context, id string) error
}

type UsersCache interface {
	// Get returns the cached users, or nil when the cache is cold.
	Get(ctx context.Context) ([]User, error)

	// Set replaces the cached user list.
	Set(ctx context.Context, users []User) error
}
