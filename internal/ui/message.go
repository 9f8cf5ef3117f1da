package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgTracksFetched
	MsgPlayed
	MsgProgressUpdate
	MsgCopyComplete
)

type playlistsPayload struct {
	playlists []models.Playlist
	err       error
}

type tracksPayload struct {
	playlist *models.PlaylistExport
	err      error
}

type playedPayload struct {
	track models.Track
	err   error
}

type copyPayload struct {
	result *tasks.TransferRunResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{playlists, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlist *models.PlaylistExport, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksPayload{playlist, err}}
}

// playedMsg is the constructor for [MsgPlayed]
func playedMsg(track models.Track, err error) Msg {
	return Msg{kind: MsgPlayed, data: playedPayload{track, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// copyCompleteMsg is the constructor for [MsgCopyComplete]
func copyCompleteMsg(result *tasks.TransferRunResult, err error) Msg {
	return Msg{kind: MsgCopyComplete, data: copyPayload{result, err}}
}
