package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// Export writes the given playlists, or every playlist, to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ids, err := resolveIDs(cmd.Args().Slice(), services.KindPlaylist)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Covers:     cmd.Bool("covers"),
	}

	r.logger.Info("starting export", "playlists", len(ids), "format", opts.Format)

	progress, stop := r.progress(func(u tasks.ProgressUpdate) {
		switch u.Phase {
		case tasks.FetchPlaylists:
			r.writePlain("📥 %s\n", u.Message)
		case tasks.ExportPlaylist:
			r.writePlain("   %s\n", u.Message)
		case tasks.WriteManifest:
			r.writePlain("\n📝 %s\n", u.Message)
		}
	})

	var result *tasks.BulkExportResult
	if len(ids) == 0 {
		result, err = r.engine.ExportAll(ctx, progress, opts)
	} else {
		result, err = r.engine.BulkExport(ctx, progress, ids, opts)
	}
	stop()
	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d playlists\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	if result.FailedExports > 0 {
		r.writePlain("\nFailed exports:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.PlaylistName, res.Error)
			}
		}
	}
	return err
}

type exportRunView struct {
	ID         string     `json:"id"`
	Format     string     `json:"format"`
	OutputDir  string     `json:"output_dir"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ExportHistory lists the export runs recorded for the current profile.
func (r *Runner) ExportHistory(ctx context.Context, cmd *cli.Command) error {
	if r.exports == nil || r.store == nil {
		return fmt.Errorf("%w: export history needs a database (run 'spx setup database')", shared.ErrMissingConfig)
	}

	session, err := r.store.Session()
	if err != nil {
		return fmt.Errorf("%w: no session for profile %q", shared.ErrNotAuthenticated, r.store.Profile())
	}

	runs, err := r.exports.List(map[string]any{"session_id": session.ID()})
	if err != nil {
		return err
	}

	views := make([]exportRunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, exportRunView{
			ID:         run.ID(),
			Format:     run.Format(),
			OutputDir:  run.OutputDir(),
			Total:      run.Total(),
			Succeeded:  run.Succeeded(),
			Failed:     run.Failed(),
			StartedAt:  run.StartedAt(),
			FinishedAt: run.FinishedAt(),
		})
	}
	if ok, err := r.outputJSON(cmd, views); ok {
		return err
	}

	if len(views) == 0 {
		return r.writePlain("No exports yet.\n")
	}
	for i, v := range views {
		status := "running"
		if v.FinishedAt != nil {
			status = fmt.Sprintf("%d/%d ok", v.Succeeded, v.Total)
		}
		r.writePlain("%d. %s  %-4s  %s  %s\n", i+1, v.StartedAt.Local().Format("2006-01-02 15:04"), v.Format, status, v.OutputDir)
	}
	return nil
}
