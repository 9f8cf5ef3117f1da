package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	TrackDetailView
	ConfirmView
	CopyView
	ResultView
)

// Player starts playback of a single URI. [services.SpotifyService] satisfies it.
type Player interface {
	Play(ctx context.Context, uri, deviceID string) error
}

// Copier duplicates playlists. [tasks.PlaylistEngine] satisfies it.
type Copier interface {
	Copy(ctx context.Context, progress chan<- tasks.ProgressUpdate, sourceIDOrName, destName string) (*tasks.TransferRunResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx              context.Context
	view             ViewState
	library          services.Service
	player           Player
	copier           Copier
	width            int
	height           int
	playlistList     list.Model
	trackList        list.Model
	selectedPlaylist *models.PlaylistExport
	selectedTrack    *models.Track
	progressChan     chan tasks.ProgressUpdate
	doneChan         chan Msg
	progress         tasks.ProgressUpdate
	result           *tasks.TransferRunResult
	status           string
	err              error
	help             help.Model
	keys             keyMap
}

// NewModel creates a new TUI model. player and copier may be nil, which
// disables the matching keys.
func NewModel(ctx context.Context, library services.Service, player Player, copier Copier) *Model {
	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		library:      library,
		player:       player,
		copier:       copier,
		playlistList: newList(nil, "Your Playlists"),
		trackList:    newList(nil, "Tracks"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.help) && !m.filtering() {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case TrackDetailView:
			return m.handleTrackDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case CopyView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsPayload)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		cmd := m.playlistList.SetItems(items)
		m.playlistList.Title = fmt.Sprintf("Your Playlists (%d)", len(items))
		return m, cmd

	case MsgTracksFetched:
		data := msg.data.(tracksPayload)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Failed to load playlist: %v", data.err))
			m.view = PlaylistListView
			return m, nil
		}
		m.selectedPlaylist = data.playlist
		items := make([]list.Item, len(data.playlist.Tracks))
		for i, track := range data.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList.ResetFilter()
		m.trackList.Select(0)
		cmd := m.trackList.SetItems(items)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.playlist.Playlist.Name)
		m.status = ""
		m.view = TrackListView
		return m, cmd

	case MsgPlayed:
		data := msg.data.(playedPayload)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Playback failed: %v", data.err))
		} else {
			m.status = styles.ok.Render(fmt.Sprintf("▶ %s - %s", data.track.Artist, data.track.Title))
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgCopyComplete:
		data := msg.data.(copyPayload)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderList(m.playlistList, m.keys.enter, m.keys.quit)
	case TrackListView:
		return m.renderList(m.trackList, m.keys.enter, m.keys.play, m.keys.copy, m.keys.back, m.keys.quit)
	case TrackDetailView:
		return m.renderTrackDetail()
	case ConfirmView:
		return m.renderConfirm()
	case CopyView:
		return m.renderCopy()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) filtering() bool {
	switch m.view {
	case PlaylistListView:
		return m.playlistList.FilterState() == list.Filtering
	case TrackListView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				m.status = fmt.Sprintf("Loading %s...", pl.playlist.Name)
				return m, m.fetchTracks(pl.playlist.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = PlaylistListView
			m.status = ""
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.trackList.SelectedItem().(trackItem); ok {
				track := item.track
				m.selectedTrack = &track
				m.view = TrackDetailView
			}
			return m, nil
		case key.Matches(msg, m.keys.play):
			if item, ok := m.trackList.SelectedItem().(trackItem); ok {
				return m, m.play(item.track)
			}
			return m, nil
		case key.Matches(msg, m.keys.copy):
			if m.copier != nil && m.selectedPlaylist != nil {
				m.view = ConfirmView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = TrackListView
	case key.Matches(msg, m.keys.play):
		if m.selectedTrack != nil {
			return m, m.play(*m.selectedTrack)
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = CopyView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startCopy()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selectedPlaylist = nil
		m.selectedTrack = nil
		m.result = nil
		m.err = nil
		m.status = ""
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		return playlistsFetchedMsg(m.library.GetPlaylists(m.ctx))
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		return tracksFetchedMsg(m.library.ExportPlaylist(m.ctx, playlistID))
	}
}

func (m *Model) play(track models.Track) tea.Cmd {
	if m.player == nil {
		m.status = styles.warn.Render("Playback is not available")
		return nil
	}
	uri := track.URI
	if uri == "" && track.ID != "" {
		uri = services.Ref{Kind: services.KindTrack, ID: track.ID}.URI()
	}
	m.status = fmt.Sprintf("Starting %s...", track.Title)
	return func() tea.Msg {
		return playedMsg(track, m.player.Play(m.ctx, uri, ""))
	}
}

func (m *Model) startCopy() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.doneChan = done

	source := m.selectedPlaylist.Playlist.ID
	go func() {
		result, err := m.copier.Copy(m.ctx, progress, source, "")
		close(progress)
		done <- copyCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

// waitForProgress relays one progress update, or the final result once the
// progress channel closes.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) footer(keys ...key.Binding) string {
	var b strings.Builder
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	if m.help.ShowAll {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(append(keys, m.keys.help)))
	}
	return b.String()
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.footer(keys...))
}

func (m *Model) renderTrackDetail() string {
	t := m.selectedTrack
	if t == nil {
		return ""
	}

	rows := [][2]string{
		{"Title", t.Title},
		{"Artist", t.Artist},
		{"Album", t.Album},
		{"Length", shared.FormatDuration(t.Duration)},
		{"ISRC", t.ISRC},
		{"URI", t.URI},
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(t.Title))
	b.WriteString("\n")
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		b.WriteString(styles.label.Render(row[0]))
		b.WriteString(row[1])
		b.WriteString("\n")
	}

	return fmt.Sprintf("%s\n\n%s", styles.box.Render(strings.TrimRight(b.String(), "\n")), m.footer(m.keys.play, m.keys.back, m.keys.quit))
}

func (m *Model) renderConfirm() string {
	name := m.selectedPlaylist.Playlist.Name
	title := styles.title.Render(fmt.Sprintf("Copy '%s'?", name))
	info := fmt.Sprintf("\nA private playlist named '%s (copy)' will be created with %d tracks.\n", name, len(m.selectedPlaylist.Tracks))
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.footer(m.keys.yes, m.keys.no))
}

func (m *Model) renderCopy() string {
	title := styles.title.Render("Copying Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source playlist..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.footer(m.keys.restart, m.keys.quit)
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Copy failed: %v", m.err)), helpView)
	}
	if m.result == nil || m.result.DestPlaylist == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Copy Complete!")
	info := fmt.Sprintf(
		"\nSource: %s (%d tracks)\nDestination: %s (%d tracks)\nMatched: %d/%d (%.1f%%)",
		m.result.SourcePlaylist.Playlist.Name,
		m.result.TotalTracks,
		m.result.DestPlaylist.Name,
		m.result.DestPlaylist.TrackCount,
		m.result.SuccessCount,
		m.result.TotalTracks,
		m.result.MatchPercentage,
	)

	var failed string
	if m.result.FailedCount > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to match %d tracks:", m.result.FailedCount)))
		for _, match := range m.result.TrackMatches {
			if match.Matched == nil {
				failed += fmt.Sprintf("\n  • %s - %s", match.Original.Artist, match.Original.Title)
			}
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
