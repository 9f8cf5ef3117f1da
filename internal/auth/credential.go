package auth

import (
	"context"
	"time"
)

// TokenType is the only token type issued by the accounts service.
const TokenType = "Bearer"

// Credential is an access token with its renewal material.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Header formats the value for an Authorization header.
func (c Credential) Header() string {
	return TokenType + " " + c.AccessToken
}

// NeedsRenewal reports whether now is at or past ExpiresAt minus margin.
//
// A zero ExpiresAt never needs renewal.
func (c Credential) NeedsRenewal(now time.Time, margin time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(-margin))
}

// Store persists the current credential across process restarts.
//
// Load returns (nil, nil) when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}
