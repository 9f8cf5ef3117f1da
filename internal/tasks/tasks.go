package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// TrackMatchResult represents the result of attempting to match a single track.
type TrackMatchResult struct {
	Original models.Track  // Track as it appears in the source
	Matched  *models.Track // Catalog track (nil if not found)
	Error    error         // Error if match failed
}

// TransferRunResult contains all data from a copy or restore.
type TransferRunResult struct {
	SourcePlaylist  *models.PlaylistExport // Source playlist with tracks
	DestPlaylist    *models.Playlist       // Created destination playlist
	TrackMatches    []TrackMatchResult     // Individual track match results
	SuccessCount    int                    // Number of successfully matched tracks
	FailedCount     int                    // Number of failed matches
	TotalTracks     int                    // Total tracks processed
	MatchPercentage float64                // Success rate as percentage
}

// ComparisonResult contains track comparison details between two playlists.
type ComparisonResult struct {
	SourcePlaylist *models.PlaylistExport // Source playlist
	DestPlaylist   *models.PlaylistExport // Destination playlist
	MatchedCount   int                    // Tracks found in both
	MissingInDest  []models.Track         // Tracks in source but not in dest
	ExtraInDest    []models.Track         // Tracks in dest but not in source
}

// TransferDiffResult contains the results of comparing two playlists.
type TransferDiffResult struct {
	Comparison ComparisonResult
}

// EndpointResult records a library endpoint that could not be fetched.
type EndpointResult struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// DumpResult contains the raw JSON of every library endpoint.
type DumpResult struct {
	Profile         any              `json:"profile,omitempty"`
	Playlists       any              `json:"playlists,omitempty"`
	SavedTracks     any              `json:"saved_tracks,omitempty"`
	SavedAlbums     any              `json:"saved_albums,omitempty"`
	SavedShows      any              `json:"saved_shows,omitempty"`
	FollowedArtists any              `json:"followed_artists,omitempty"`
	TopArtists      any              `json:"top_artists,omitempty"`
	TopTracks       any              `json:"top_tracks,omitempty"`
	RecentlyPlayed  any              `json:"recently_played,omitempty"`
	Errors          []EndpointResult `json:"errors,omitempty"`
}

type endpointOperation struct {
	path    string
	target  *any
	message string
}

// Engine defines the long-running playlist and library operations.
type Engine interface {
	// Copy duplicates a playlist, found by ID or exact name, into a new private playlist.
	Copy(ctx context.Context, progress chan<- ProgressUpdate, sourceIDOrName, destName string) (*TransferRunResult, error)

	// Restore recreates a playlist from an export, matching tracks without a URI against the catalog.
	Restore(ctx context.Context, progress chan<- ProgressUpdate, export *models.PlaylistExport, destName string) (*TransferRunResult, error)

	// Diff compares two playlists, identifying matched, missing and extra tracks.
	Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*TransferDiffResult, error)

	// Dump fetches the raw JSON of the user's whole library.
	Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error)

	// BulkExport writes the given playlists to disk concurrently.
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error)
}

// APIClient performs raw authenticated GETs. [services.APIService] satisfies it.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// ExportRecorder persists export runs. [repositories.ExportRepository] satisfies it.
type ExportRecorder interface {
	Create(run *models.ExportRun) error
	Update(run *models.ExportRun) error
}

// PlaylistEngine implements [Engine] on top of a [services.Service].
type PlaylistEngine struct {
	service   services.Service
	api       APIClient
	recorder  ExportRecorder
	sessionID string
	logger    *log.Logger
}

// EngineOption configures a [PlaylistEngine].
type EngineOption func(*PlaylistEngine)

// WithRecorder records each bulk export against sessionID.
func WithRecorder(r ExportRecorder, sessionID string) EngineOption {
	return func(e *PlaylistEngine) {
		e.recorder = r
		e.sessionID = sessionID
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *PlaylistEngine) { e.logger = l }
}

// NewPlaylistEngine creates a new PlaylistEngine. api may be nil when Dump is not needed.
func NewPlaylistEngine(service services.Service, api APIClient, opts ...EngineOption) *PlaylistEngine {
	e := &PlaylistEngine{service: service, api: api}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(io.Discard)
	}
	return e
}

var _ Engine = (*PlaylistEngine)(nil)

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) requireService() error {
	if e.service == nil {
		return fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}
	return nil
}

// resolvePlaylist exports idOrName when it is a playlist ID, URI or link,
// falling back to an exact name match among the user's playlists.
func (e *PlaylistEngine) resolvePlaylist(ctx context.Context, idOrName string) (*models.PlaylistExport, error) {
	if ref, err := services.ParseRef(idOrName, services.KindPlaylist); err == nil && ref.Kind == services.KindPlaylist {
		export, err := e.service.ExportPlaylist(ctx, ref.ID)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			return export, err
		}
	}

	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlists: %w", err)
	}

	for _, pl := range playlists {
		if pl.ID == idOrName || pl.Name == idOrName {
			return e.service.ExportPlaylist(ctx, pl.ID)
		}
	}
	return nil, fmt.Errorf("%w: no playlist found with ID or name %q", shared.ErrPlaylistNotFound, idOrName)
}

// Copy duplicates a playlist into a new private playlist named destName
// (default: "<source> (copy)").
func (e *PlaylistEngine) Copy(ctx context.Context, progress chan<- ProgressUpdate, srcIDOrName, destName string) (*TransferRunResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchingSourceUpdate(1, 1))
	src, err := e.resolvePlaylist(ctx, srcIDOrName)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, foundPlaylistUpdate(1, 1, src))

	if destName == "" {
		destName = src.Playlist.Name + " (copy)"
	}
	return e.transfer(ctx, progress, src, destName, fmt.Sprintf("Copied from %s", src.Playlist.Name))
}

// Restore recreates a playlist from an export file's contents.
func (e *PlaylistEngine) Restore(ctx context.Context, progress chan<- ProgressUpdate, export *models.PlaylistExport, destName string) (*TransferRunResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}
	if export == nil {
		return nil, fmt.Errorf("%w: playlist export", shared.ErrMissingArgument)
	}

	if destName == "" {
		destName = export.Playlist.Name
	}
	e.sendProgress(progress, foundPlaylistUpdate(1, 1, export))
	return e.transfer(ctx, progress, export, destName, export.Playlist.Description)
}

func (e *PlaylistEngine) transfer(ctx context.Context, progress chan<- ProgressUpdate, src *models.PlaylistExport, destName, description string) (*TransferRunResult, error) {
	total := len(src.Tracks)
	result := &TransferRunResult{SourcePlaylist: src, TotalTracks: total}

	e.sendProgress(progress, searchTracksUpdate(0, total, nil))

	matches := make([]TrackMatchResult, total)
	for i, track := range src.Tracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.sendProgress(progress, searchTracksUpdate(i+1, total, &track))

		matches[i] = TrackMatchResult{Original: track}
		if ref, err := services.ParseRef(track.URI, ""); err == nil && ref.Kind == services.KindTrack {
			matched := track
			matches[i].Matched = &matched
			result.SuccessCount++
			continue
		}

		found, err := e.service.SearchTrack(ctx, track.Title, track.Artist)
		matches[i].Matched, matches[i].Error = found, err
		if err == nil {
			result.SuccessCount++
		} else {
			e.logger.Debug("track not matched", "title", track.Title, "artist", track.Artist, "error", err)
		}
	}

	result.TrackMatches = matches
	result.FailedCount = total - result.SuccessCount
	if total > 0 {
		result.MatchPercentage = float64(result.SuccessCount) / float64(total) * 100
	}

	if result.SuccessCount == 0 {
		return result, fmt.Errorf("%w: no tracks were matched, refusing to create an empty playlist", shared.ErrTrackNotFound)
	}

	e.sendProgress(progress, createDestinationUpdate(1, 1, destName))

	matched := make([]models.Track, 0, result.SuccessCount)
	for _, m := range matches {
		if m.Matched != nil {
			matched = append(matched, *m.Matched)
		}
	}
	dest := &models.PlaylistExport{
		Playlist: models.Playlist{Name: destName, Description: description, Public: false},
		Tracks:   matched,
	}

	created, err := e.service.ImportPlaylist(ctx, dest)
	result.DestPlaylist = created
	if err != nil {
		if created != nil {
			return result, fmt.Errorf("playlist %s is incomplete: %w", created.ID, err)
		}
		return result, fmt.Errorf("failed to create playlist: %w", err)
	}

	e.sendProgress(progress, createPlaylistUpdate(1, 1, created))
	return result, nil
}

// trackIndex matches tracks by ISRC, then by normalized title and artist.
type trackIndex struct {
	byISRC map[string]struct{}
	byKey  map[string]struct{}
}

func newTrackIndex(tracks []models.Track) trackIndex {
	idx := trackIndex{byISRC: map[string]struct{}{}, byKey: map[string]struct{}{}}
	for _, t := range tracks {
		if t.ISRC != "" {
			idx.byISRC[t.ISRC] = struct{}{}
		}
		idx.byKey[shared.NormalizeTrackKey(t.Title, t.Artist)] = struct{}{}
	}
	return idx
}

func (idx trackIndex) contains(t models.Track) bool {
	if t.ISRC != "" {
		if _, ok := idx.byISRC[t.ISRC]; ok {
			return true
		}
	}
	_, ok := idx.byKey[shared.NormalizeTrackKey(t.Title, t.Artist)]
	return ok
}

// Diff compares two playlists and identifies differences.
func (e *PlaylistEngine) Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*TransferDiffResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchPlaylistUpdate(FetchSource, 1, 2, sourceID))
	sourceExport, err := e.resolvePlaylist(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to export source playlist: %w", err)
	}

	e.sendProgress(progress, fetchPlaylistUpdate(FetchDest, 2, 2, destID))
	destExport, err := e.resolvePlaylist(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("failed to export destination playlist: %w", err)
	}

	e.sendProgress(progress, compareUpdate(1, 1))

	result := &TransferDiffResult{}
	result.Comparison.SourcePlaylist = sourceExport
	result.Comparison.DestPlaylist = destExport

	destIdx := newTrackIndex(destExport.Tracks)
	for _, t := range sourceExport.Tracks {
		if destIdx.contains(t) {
			result.Comparison.MatchedCount++
		} else {
			result.Comparison.MissingInDest = append(result.Comparison.MissingInDest, t)
		}
	}

	srcIdx := newTrackIndex(sourceExport.Tracks)
	for _, t := range destExport.Tracks {
		if !srcIdx.contains(t) {
			result.Comparison.ExtraInDest = append(result.Comparison.ExtraInDest, t)
		}
	}

	return result, nil
}

// Dump fetches every library endpoint. Individual failures are collected in
// Errors rather than aborting the dump.
func (e *PlaylistEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrNotAuthenticated)
	}

	result := &DumpResult{Errors: []EndpointResult{}}

	endpoints := []endpointOperation{
		{path: "/me", target: &result.Profile, message: "Fetching profile..."},
		{path: "/me/playlists?limit=50", target: &result.Playlists, message: "Fetching playlists..."},
		{path: "/me/tracks?limit=50", target: &result.SavedTracks, message: "Fetching liked songs..."},
		{path: "/me/albums?limit=50", target: &result.SavedAlbums, message: "Fetching saved albums..."},
		{path: "/me/shows?limit=50", target: &result.SavedShows, message: "Fetching saved shows..."},
		{path: "/me/following?type=artist&limit=50", target: &result.FollowedArtists, message: "Fetching followed artists..."},
		{path: "/me/top/artists?limit=50", target: &result.TopArtists, message: "Fetching top artists..."},
		{path: "/me/top/tracks?limit=50", target: &result.TopTracks, message: "Fetching top tracks..."},
		{path: "/me/player/recently-played?limit=50", target: &result.RecentlyPlayed, message: "Fetching listening history..."},
	}

	totalSteps := len(endpoints)

	for i, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.sendProgress(progress, libraryUpdate(endpoint, i+1, totalSteps))

		resp, err := e.api.Get(ctx, endpoint.path)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: err.Error()})
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: fmt.Sprintf("status %d", resp.StatusCode)})
		default:
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
