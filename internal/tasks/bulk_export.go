package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: spotify_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
	Covers     bool    // Download cover images for markdown exports
}

// PlaylistExportJob is one playlist queued for export.
type PlaylistExportJob struct {
	Index      int
	PlaylistID string
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Warnings     []string
	Error        error

	index int
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult // In the order the IDs were given
}

// ExportAll exports every playlist in the user's library.
func (e *PlaylistEngine) ExportAll(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	e.sendProgress(prog, fetchPlaylistsUpdate())
	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlists: %w", err)
	}

	ids := make([]string, len(playlists))
	for i, pl := range playlists {
		ids[i] = pl.ID
	}
	return e.BulkExport(ctx, prog, ids, opts)
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Every worker shares one limiter, so NumWorkers bounds concurrency while
// RateLimit bounds request volume. A failed playlist is recorded in the
// manifest without stopping the others. When ctx is canceled the manifest
// still describes the playlists that finished and ctx.Err() is returned.
func (e *PlaylistEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), maxWorkers)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	run := e.startRun(format, opts.OutputDir)

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob)
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, jobs, results, format, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			select {
			case <-ctx.Done():
				return
			case jobs <- PlaylistExportJob{Index: i, PlaylistID: id}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	// Results arrive in completion order.
	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return cmp.Compare(a.index, b.index) })

	manifest := &formatter.Manifest{Format: format, TotalPlaylists: len(ids)}
	for _, res := range result.Results {
		manifest.Add(res.PlaylistID, res.PlaylistName, res.Files, res.Error)
	}

	manifestPath := filepath.Join(opts.OutputDir, formatter.ManifestFilename)
	manifestErr := formatter.WriteBulkExportManifest(manifest, manifestPath)
	if manifestErr == nil {
		result.ManifestPath = manifestPath
		e.sendProgress(prog, manifestUpdate(manifestPath))
	}

	e.finishRun(run, result)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if manifestErr != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", manifestErr)
	}
	return result, nil
}

// exportWorker fetches and writes playlists from the jobs channel.
func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	format formatter.Format,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := PlaylistExportResult{
			PlaylistID:   job.PlaylistID,
			PlaylistName: fmt.Sprintf("Unknown (%s)", job.PlaylistID),
			Files:        []string{},
			index:        job.Index,
		}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			results <- res
			continue
		}

		export, err := e.service.ExportPlaylist(ctx, job.PlaylistID)
		if err != nil {
			res.Error = fmt.Errorf("failed to fetch playlist: %w", err)
			results <- res
			continue
		}

		results <- e.exportSinglePlaylist(ctx, job, export, format, opts)
	}
}

// exportSinglePlaylist writes a single playlist in the requested format.
func (e *PlaylistEngine) exportSinglePlaylist(
	ctx context.Context,
	job PlaylistExportJob,
	export *models.PlaylistExport,
	format formatter.Format,
	opts BulkExportOpts,
) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   job.PlaylistID,
		PlaylistName: export.Playlist.Name,
		Files:        []string{},
		index:        job.Index,
	}

	base := export.Playlist.ID
	if base == "" {
		base = job.PlaylistID
	}
	wopts := formatter.WriteOptions{Base: base}
	if opts.Covers && format == formatter.FormatMarkdown {
		wopts.CoverURL = export.Playlist.ImageURL
	}

	written, err := formatter.Write(ctx, format, export, opts.OutputDir, wopts)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", format, err)
		return result
	}
	result.Files = written.Files
	result.Warnings = written.Warnings
	for _, w := range written.Warnings {
		e.logger.Warn("cover image skipped", "playlist", export.Playlist.Name, "reason", w)
	}

	result.Success = true
	return result
}

// startRun records the beginning of an export. Recorder failures are logged
// and never abort the export.
func (e *PlaylistEngine) startRun(format formatter.Format, dir string) *models.ExportRun {
	if e.recorder == nil || e.sessionID == "" {
		return nil
	}

	run := models.NewExportRun(e.sessionID, string(format), dir)
	if err := e.recorder.Create(run); err != nil {
		e.logger.Warn("failed to record export run", "error", err)
		return nil
	}
	return run
}

func (e *PlaylistEngine) finishRun(run *models.ExportRun, result *BulkExportResult) {
	if run == nil {
		return
	}

	run.Finish(result.TotalPlaylists, result.SuccessfulExports, result.FailedExports, time.Now())
	if err := e.recorder.Update(run); err != nil {
		e.logger.Warn("failed to update export run", "id", run.ID(), "error", err)
	}
}
