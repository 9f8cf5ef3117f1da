package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

const exportColumns = `id, session_id, format, output_dir, total, succeeded, failed,
	started_at, finished_at, created_at, updated_at`

// ExportRepository implements [models.Repository] for [models.ExportRun] history.
type ExportRepository struct {
	db *sql.DB
}

func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(run *models.ExportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.SetID(shared.GenerateID())

	query := `
		INSERT INTO exports (id, session_id, format, output_dir, total, succeeded, failed,
			started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, run.ID(), run.SessionID(), run.Format(), run.OutputDir(),
		run.Total(), run.Succeeded(), run.Failed(), run.StartedAt(), finishedAt(run),
		run.CreatedAt(), run.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}
	return nil
}

func (r *ExportRepository) Get(id string) (*models.ExportRun, error) {
	row := r.db.QueryRow("SELECT "+exportColumns+" FROM exports WHERE id = ?", id)
	run, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: export %s", ErrNotFound, id)
	}
	return run, err
}

// Update stores the outcome counters and completion time.
func (r *ExportRepository) Update(run *models.ExportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE exports
		SET total = ?, succeeded = ?, failed = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, run.Total(), run.Succeeded(), run.Failed(), finishedAt(run), now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update export: %w", err)
	}
	return expectOne(result, "export", run.ID())
}

// Delete removes an export record. Export history is not soft-deleted.
func (r *ExportRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM exports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	return expectOne(result, "export", id)
}

// List returns exports newest first. Supported keys: "session_id" (string), "limit" (int).
func (r *ExportRepository) List(criteria map[string]any) ([]*models.ExportRun, error) {
	query := "SELECT " + exportColumns + " FROM exports WHERE 1 = 1"
	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY started_at DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExportRun
	for rows.Next() {
		run, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func scanExport(s scanner) (*models.ExportRun, error) {
	var (
		id, sessionID, format, outputDir string
		total, succeeded, failed         int
		startedAt, createdAt, updatedAt  time.Time
		finished                         sql.NullTime
	)

	err := s.Scan(&id, &sessionID, &format, &outputDir, &total, &succeeded, &failed,
		&startedAt, &finished, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan export: %w", err)
	}

	run := models.NewExportRun(sessionID, format, outputDir)
	run.SetID(id)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.SetCounts(total, succeeded, failed)
	if finished.Valid {
		run.SetFinishedAt(&finished.Time)
	}
	return run, nil
}

func finishedAt(run *models.ExportRun) sql.NullTime {
	if t := run.FinishedAt(); t != nil {
		return sql.NullTime{Time: *t, Valid: true}
	}
	return sql.NullTime{}
}
