package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/auth"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// Each pooled connection would get its own :memory: database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "sessions")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	if _, err := NextSequence(db, "sessions; DROP TABLE sessions"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestSessionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession(0, "default")

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if session.ID() == "" {
			t.Error("session ID should be set after creation")
		}
		if session.Sequence() != 1 {
			t.Errorf("sequence = %d, want 1", session.Sequence())
		}
	})

	t.Run("CreateErrors", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if err := repo.Create(models.NewSession(0, "  ")); err == nil {
				t.Fatal("expected validation error for blank name")
			}
		})

		t.Run("DuplicateName", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if err := repo.Create(models.NewSession(0, "work")); err != nil {
				t.Fatal(err)
			}
			if err := repo.Create(models.NewSession(0, "work")); err == nil {
				t.Fatal("expected error when creating session with duplicate name")
			}
		})
	})

	t.Run("Get and GetByName", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		expires := time.Now().Add(time.Hour).Truncate(time.Second)

		session := models.NewSession(0, "default")
		session.SetProfile("user-1", "Ada")
		session.SetCredential("access", "refresh", "Bearer", "user-read-private", expires)
		if err := repo.Create(session); err != nil {
			t.Fatal(err)
		}

		byID, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		byName, err := repo.GetByName("default")
		if err != nil {
			t.Fatalf("failed to get session by name: %v", err)
		}

		for _, got := range []*models.Session{byID, byName} {
			if got.ID() != session.ID() {
				t.Errorf("expected ID %s, got %s", session.ID(), got.ID())
			}
			if got.AccessToken() != "access" || got.RefreshToken() != "refresh" {
				t.Errorf("tokens = %q/%q", got.AccessToken(), got.RefreshToken())
			}
			if !got.ExpiresAt().Equal(expires) {
				t.Errorf("expires_at = %v, want %v", got.ExpiresAt(), expires)
			}
			if got.DisplayName() != "Ada" {
				t.Errorf("display name = %q", got.DisplayName())
			}
		}

		if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession(0, "default")
		if err := repo.Create(session); err != nil {
			t.Fatal(err)
		}

		session.SetCredential("new-access", "", "Bearer", "", time.Time{})
		if err := repo.Update(session); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		got, _ := repo.Get(session.ID())
		if got.AccessToken() != "new-access" {
			t.Errorf("access token = %q", got.AccessToken())
		}
		if !got.ExpiresAt().IsZero() {
			t.Errorf("expires_at = %v, want zero", got.ExpiresAt())
		}

		ghost := models.NewSession(0, "ghost")
		ghost.SetID("nope")
		if err := repo.Update(ghost); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(ghost) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Delete frees the name", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession(0, "default")
		if err := repo.Create(session); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(session.ID()); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.Get(session.ID()); err == nil {
			t.Error("deleted session should not be returned")
		}
		if err := repo.Delete(session.ID()); err == nil {
			t.Error("deleting twice should fail")
		}
		if err := repo.Create(models.NewSession(0, "default")); err != nil {
			t.Errorf("name should be reusable after delete: %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		signedIn := models.NewSession(0, "a")
		signedIn.SetCredential("tok", "", "Bearer", "", time.Time{})
		signedIn.SetProfile("u1", "")
		for _, s := range []*models.Session{signedIn, models.NewSession(0, "b"), models.NewSession(0, "c")} {
			if err := repo.Create(s); err != nil {
				t.Fatal(err)
			}
		}

		tc := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{name: "all", criteria: map[string]any{}, want: 3},
			{name: "by name", criteria: map[string]any{"name": "b"}, want: 1},
			{name: "by user", criteria: map[string]any{"user_id": "u1"}, want: 1},
			{name: "signed in", criteria: map[string]any{"signed_in": true}, want: 1},
			{name: "signed out", criteria: map[string]any{"signed_in": false}, want: 2},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(got) != tt.want {
					t.Errorf("List() returned %d sessions, want %d", len(got), tt.want)
				}
			})
		}
	})
}

func TestExportRepository(t *testing.T) {
	db := setupTestDB(t)
	sessions := NewSessionRepository(db)
	exports := NewExportRepository(db)

	session := models.NewSession(0, "default")
	if err := sessions.Create(session); err != nil {
		t.Fatal(err)
	}

	t.Run("Create and Update", func(t *testing.T) {
		run := models.NewExportRun(session.ID(), "json", "./exports")
		if err := exports.Create(run); err != nil {
			t.Fatalf("failed to create export: %v", err)
		}

		run.Finish(4, 3, 1, time.Now())
		if err := exports.Update(run); err != nil {
			t.Fatalf("failed to update export: %v", err)
		}

		got, err := exports.Get(run.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Total() != 4 || got.Succeeded() != 3 || got.Failed() != 1 {
			t.Errorf("counters = %d/%d/%d", got.Total(), got.Succeeded(), got.Failed())
		}
		if got.FinishedAt() == nil {
			t.Error("finished_at should be set")
		}
	})

	t.Run("Validation", func(t *testing.T) {
		if err := exports.Create(models.NewExportRun("", "json", ".")); err == nil {
			t.Error("expected validation error for empty session id")
		}

		run := models.NewExportRun(session.ID(), "csv", ".")
		run.SetCounts(1, 2, 0)
		if err := exports.Create(run); err == nil {
			t.Error("expected validation error for inconsistent counters")
		}
	})

	t.Run("ForeignKey", func(t *testing.T) {
		if err := exports.Create(models.NewExportRun("no-such-session", "json", ".")); err == nil {
			t.Error("expected foreign key violation")
		}
	})

	t.Run("List and Delete", func(t *testing.T) {
		runs, err := exports.List(map[string]any{"session_id": session.ID()})
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 {
			t.Fatalf("List() returned %d runs, want 1", len(runs))
		}
		if err := exports.Delete(runs[0].ID()); err != nil {
			t.Fatal(err)
		}
		if _, err := exports.Get(runs[0].ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Load without row", func(t *testing.T) {
		store := NewCredentialStore(NewSessionRepository(setupTestDB(t)), "default")
		cred, err := store.Load(ctx)
		if err != nil || cred != nil {
			t.Fatalf("Load() = %v, %v; want nil, nil", cred, err)
		}
		if err := store.Clear(ctx); err != nil {
			t.Errorf("Clear() without row error = %v", err)
		}
	})

	t.Run("Save Load Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		store := NewCredentialStore(repo, "default")
		expires := time.Now().Add(time.Hour).Truncate(time.Second)

		want := auth.Credential{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    auth.TokenType,
			Scope:        "user-top-read",
			ExpiresAt:    expires,
		}
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("Load() returned nil credential")
		}
		if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || got.Scope != want.Scope {
			t.Errorf("Load() = %+v, want %+v", *got, want)
		}
		if !got.ExpiresAt.Equal(expires) {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
		}

		if err := store.SetProfile("user-9", "Grace"); err != nil {
			t.Fatal(err)
		}

		if err := store.Clear(ctx); err != nil {
			t.Fatal(err)
		}
		if got, _ := store.Load(ctx); got != nil {
			t.Errorf("Load() after Clear = %+v, want nil", got)
		}

		session, err := repo.GetByName("default")
		if err != nil {
			t.Fatalf("profile row should survive Clear: %v", err)
		}
		if session.UserID() != "user-9" {
			t.Errorf("user id = %q", session.UserID())
		}
	})

	t.Run("Profiles are isolated", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		a := NewCredentialStore(repo, "a")
		b := NewCredentialStore(repo, "b")

		if err := a.Save(ctx, auth.Credential{AccessToken: "tok-a"}); err != nil {
			t.Fatal(err)
		}
		if got, _ := b.Load(ctx); got != nil {
			t.Errorf("profile b should be empty, got %+v", got)
		}
	})
}
