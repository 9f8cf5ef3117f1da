package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

const sessionColumns = `id, sequence, name, user_id, display_name, access_token, refresh_token,
	token_type, scope, expires_at, created_at, updated_at, deleted_at`

// SessionRepository implements [models.Repository] for [models.Session] persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	session.SetID(shared.GenerateID())
	session.SetSequence(sequence)

	query := `
		INSERT INTO sessions (id, sequence, name, user_id, display_name, access_token, refresh_token,
			token_type, scope, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		session.ID(), sequence, session.Name(), session.UserID(), session.DisplayName(),
		session.AccessToken(), session.RefreshToken(), session.TokenType(), session.Scope(),
		nullTime(session.ExpiresAt()), session.CreatedAt(), session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	row := r.db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ? AND deleted_at IS NULL", id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return session, err
}

// GetByName retrieves the live session for a profile name.
func (r *SessionRepository) GetByName(name string) (*models.Session, error) {
	row := r.db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE name = ? AND deleted_at IS NULL", name)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session named %q", ErrNotFound, name)
	}
	return session, err
}

// Update writes every mutable column of an existing session
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET name = ?, user_id = ?, display_name = ?, access_token = ?, refresh_token = ?,
			token_type = ?, scope = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query,
		session.Name(), session.UserID(), session.DisplayName(), session.AccessToken(),
		session.RefreshToken(), session.TokenType(), session.Scope(), nullTime(session.ExpiresAt()),
		now, session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return expectOne(result, "session", session.ID())
}

// Delete soft-deletes a session and frees its name for reuse.
func (r *SessionRepository) Delete(id string) error {
	now := time.Now()
	query := `
		UPDATE sessions
		SET deleted_at = ?, name = name || ':' || id, access_token = '', refresh_token = ''
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectOne(result, "session", id)
}

// List retrieves sessions matching criteria, excluding soft-deleted sessions.
//
// Supported keys: "name" (string), "user_id" (string), "signed_in" (bool).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE deleted_at IS NULL"
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}
	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if signedIn, ok := criteria["signed_in"].(bool); ok {
		if signedIn {
			query += " AND access_token != ''"
		} else {
			query += " AND access_token = ''"
		}
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*models.Session, error) {
	var (
		id, name, userID, displayName string
		accessToken, refreshToken     string
		tokenType, scope              string
		sequence                      int
		expiresAt, deletedAt          sql.NullTime
		createdAt, updatedAt          time.Time
	)

	err := s.Scan(&id, &sequence, &name, &userID, &displayName, &accessToken, &refreshToken,
		&tokenType, &scope, &expiresAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session := models.NewSession(sequence, name)
	session.SetID(id)
	session.SetProfile(userID, displayName)
	session.SetCredential(accessToken, refreshToken, tokenType, scope, expiresAt.Time)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		session.SetDeletedAt(&deletedAt.Time)
	}
	return session, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
