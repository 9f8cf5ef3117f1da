package models

import (
	"fmt"
	"strings"
	"time"
)

// Session is a named login profile and the credential currently issued for it.
//
// An empty AccessToken means the profile is logged out.
type Session struct {
	entity
	name         string
	userID       string
	displayName  string
	accessToken  string
	refreshToken string
	tokenType    string
	scope        string
	expiresAt    time.Time
}

// NewSession creates a logged-out session for the given profile name.
func NewSession(sequence int, name string) *Session {
	return &Session{entity: newEntity(sequence), name: name, tokenType: "Bearer"}
}

func (s *Session) Name() string { return s.name }
func (s *Session) UserID() string { return s.userID }
func (s *Session) DisplayName() string { return s.displayName }
func (s *Session) AccessToken() string { return s.accessToken }
func (s *Session) RefreshToken() string { return s.refreshToken }
func (s *Session) TokenType() string { return s.tokenType }
func (s *Session) Scope() string { return s.scope }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }
func (s *Session) SetName(name string) { s.name = name }

// SetProfile records which Spotify account the session belongs to.
func (s *Session) SetProfile(userID, displayName string) {
	s.userID = userID
	s.displayName = displayName
}

// SetCredential replaces the stored token fields.
func (s *Session) SetCredential(accessToken, refreshToken, tokenType, scope string, expiresAt time.Time) {
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.tokenType = tokenType
	s.scope = scope
	s.expiresAt = expiresAt
}

// ClearCredential logs the session out while keeping the profile row.
func (s *Session) ClearCredential() {
	s.SetCredential("", "", "Bearer", "", time.Time{})
}

// HasCredential reports whether the session holds an access token.
func (s *Session) HasCredential() bool { return s.accessToken != "" }

// Validate checks the profile name and token type.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.name) == "" {
		return fmt.Errorf("session name is required")
	}
	if s.tokenType != "" && !strings.EqualFold(s.tokenType, "Bearer") {
		return fmt.Errorf("unsupported token type %q", s.tokenType)
	}
	if s.accessToken == "" && s.refreshToken != "" {
		return fmt.Errorf("refresh token without access token")
	}
	return nil
}
