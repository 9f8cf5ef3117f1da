package repositories

import (
	"context"
	"errors"

	"github.com/desertthunder/spx/internal/auth"
	"github.com/desertthunder/spx/internal/models"
)

// CredentialStore persists an [auth.Manager]'s credential in one named session row.
type CredentialStore struct {
	repo    *SessionRepository
	profile string
}

var _ auth.Store = (*CredentialStore)(nil)

// NewCredentialStore binds the store to a profile name.
func NewCredentialStore(repo *SessionRepository, profile string) *CredentialStore {
	return &CredentialStore{repo: repo, profile: profile}
}

// Profile returns the session name the store writes to.
func (s *CredentialStore) Profile() string { return s.profile }

// Session returns the backing row, creating a logged-out one if it does not exist yet.
func (s *CredentialStore) Session() (*models.Session, error) {
	session, err := s.repo.GetByName(s.profile)
	if errors.Is(err, ErrNotFound) {
		session = models.NewSession(0, s.profile)
		if err := s.repo.Create(session); err != nil {
			return nil, err
		}
		return session, nil
	}
	return session, err
}

// SetProfile records the Spotify account behind the session.
func (s *CredentialStore) SetProfile(userID, displayName string) error {
	session, err := s.Session()
	if err != nil {
		return err
	}
	session.SetProfile(userID, displayName)
	return s.repo.Update(session)
}

func (s *CredentialStore) Load(_ context.Context) (*auth.Credential, error) {
	session, err := s.repo.GetByName(s.profile)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !session.HasCredential() {
		return nil, nil
	}

	return &auth.Credential{
		AccessToken:  session.AccessToken(),
		RefreshToken: session.RefreshToken(),
		TokenType:    auth.TokenType,
		Scope:        session.Scope(),
		ExpiresAt:    session.ExpiresAt(),
	}, nil
}

func (s *CredentialStore) Save(_ context.Context, cred auth.Credential) error {
	session, err := s.Session()
	if err != nil {
		return err
	}
	session.SetCredential(cred.AccessToken, cred.RefreshToken, auth.TokenType, cred.Scope, cred.ExpiresAt)
	return s.repo.Update(session)
}

// Clear keeps the profile row but wipes its tokens.
func (s *CredentialStore) Clear(_ context.Context) error {
	session, err := s.repo.GetByName(s.profile)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	session.ClearCredential()
	return s.repo.Update(session)
}
