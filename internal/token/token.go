package token

import (
	"context"
	"errors"
	"time"
)

// State is where a cached access token sits in its lifecycle.
type State int

const (
	StateNone State = iota
	StateValid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "none"
	}
}

// Token is a bearer credential for the admin API.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StateAt classifies t at now. A token inside the min-validity window
// before expiry already counts as expired so callers never start a request
// with a credential that lapses mid-flight.
func (t Token) StateAt(now time.Time, minValidity time.Duration) State {
	if t.AccessToken == "" {
		return StateNone
	}
	if !now.Before(t.ExpiresAt.Add(-minValidity)) {
		return StateExpired
	}
	return StateValid
}

var ErrNotFound = errors.New("token not cached")

// Store keeps the current token between acquisitions.
type Store interface {
	Get(ctx context.Context, key string) (Token, error)
	Put(ctx context.Context, key string, t Token) error
	Delete(ctx context.Context, key string) error
}
