package models

import (
	"fmt"
	"time"
)

// ExportRun records one bulk export of a session's playlists.
type ExportRun struct {
	entity
	sessionID  string
	format     string
	outputDir  string
	total      int
	succeeded  int
	failed     int
	startedAt  time.Time
	finishedAt *time.Time
}

// NewExportRun creates a run that starts now.
func NewExportRun(sessionID, format, outputDir string) *ExportRun {
	return &ExportRun{
		entity:    newEntity(0),
		sessionID: sessionID,
		format:    format,
		outputDir: outputDir,
		startedAt: time.Now(),
	}
}

func (e *ExportRun) SessionID() string { return e.sessionID }
func (e *ExportRun) Format() string { return e.format }
func (e *ExportRun) OutputDir() string { return e.outputDir }
func (e *ExportRun) Total() int { return e.total }
func (e *ExportRun) Succeeded() int { return e.succeeded }
func (e *ExportRun) Failed() int { return e.failed }
func (e *ExportRun) StartedAt() time.Time { return e.startedAt }
func (e *ExportRun) FinishedAt() *time.Time { return e.finishedAt }

func (e *ExportRun) SetStartedAt(t time.Time) { e.startedAt = t }

// SetCounts stores the outcome counters.
func (e *ExportRun) SetCounts(total, succeeded, failed int) {
	e.total, e.succeeded, e.failed = total, succeeded, failed
}

// Finish stores the outcome counters and the completion time.
func (e *ExportRun) Finish(total, succeeded, failed int, at time.Time) {
	e.SetCounts(total, succeeded, failed)
	e.finishedAt = &at
}

// SetFinishedAt restores a persisted completion time.
func (e *ExportRun) SetFinishedAt(t *time.Time) { e.finishedAt = t }

// Validate checks required fields and counter consistency.
func (e *ExportRun) Validate() error {
	switch {
	case e.sessionID == "":
		return fmt.Errorf("export session id is required")
	case e.format == "":
		return fmt.Errorf("export format is required")
	case e.succeeded+e.failed > e.total:
		return fmt.Errorf("export counters exceed total: %d+%d > %d", e.succeeded, e.failed, e.total)
	}
	return nil
}
