package tasks

import (
	"fmt"

	"github.com/desertthunder/spx/internal/models"
)

// ProgressUpdate is one event emitted by a [PlaylistEngine] operation. Step
// and Total count within Phase. Data carries the playlist or export the
// event refers to, when there is one.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any
}

// Phase identifies the stage an operation is in.
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	Compare
	FetchPlaylists
	FetchLibrary
	CreatePlaylist
	SearchTracks
	ExportPlaylist
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case Compare:
		return "compare"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchLibrary:
		return "fetch_library"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case ExportPlaylist:
		return "export_playlist"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func update(phase Phase, step, total int, format string, args ...any) ProgressUpdate {
	return ProgressUpdate{Phase: phase, Step: step, Total: total, Message: fmt.Sprintf(format, args...)}
}

func fetchingSourceUpdate(step, total int) ProgressUpdate {
	return update(FetchSource, step, total, "Reading source playlist...")
}

func fetchPlaylistUpdate(phase Phase, step, total int, id string) ProgressUpdate {
	return update(phase, step, total, "Reading playlist %s...", id)
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return update(FetchPlaylists, 1, 1, "Listing your playlists...")
}

func compareUpdate(step, total int) ProgressUpdate {
	return update(Compare, step, total, "Comparing tracks...")
}

func libraryUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return update(FetchLibrary, step, total, "%s", endpoint.message)
}

func createPlaylistUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	u := update(CreatePlaylist, step, total, "Created %q (%s)", pl.Name, pl.ID)
	u.Data = pl
	return u
}

func createDestinationUpdate(step, total int, name string) ProgressUpdate {
	return update(CreatePlaylist, step, total, "Creating playlist %q...", name)
}

// searchTracksUpdate reports a lookup of tr. A nil track marks the start of the phase.
func searchTracksUpdate(step, total int, tr *models.Track) ProgressUpdate {
	if tr == nil {
		return update(SearchTracks, step, total, "Matching tracks against the catalog...")
	}
	return update(SearchTracks, step, total, "%d/%d  %s - %s", step, total, tr.Artist, tr.Title)
}

func foundPlaylistUpdate(step, total int, export *models.PlaylistExport) ProgressUpdate {
	u := update(FetchSource, step, total, "%s: %d tracks", export.Playlist.Name, len(export.Tracks))
	u.Data = export
	return u
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return update(ExportPlaylist, step, total, "%d/%d  exporting %s...", step, total, name)
}

func exportCompletedUpdate(step, total int, name string, files int) ProgressUpdate {
	return update(ExportPlaylist, step, total, "%d/%d  ✓ %s, %d files", step, total, name, files)
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return update(ExportPlaylist, step, total, "%d/%d  ✗ %s: %v", step, total, name, err)
}

func manifestUpdate(path string) ProgressUpdate {
	return update(WriteManifest, 1, 1, "Manifest: %s", path)
}
