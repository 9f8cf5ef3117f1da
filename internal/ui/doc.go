// Package ui implements an interactive terminal browser using bubbletea's Elm architecture.
//
// The TUI walks down the library:
//  1. [PlaylistListView] : Browse and filter the user's playlists
//  2. [TrackListView] : Tracks of the selected playlist
//  3. [TrackDetailView] : Album, length, ISRC and URI of one track
//
// From the track list, p plays the selected track on the active device and c
// copies the playlist, which walks through [ConfirmView], [CopyView] and
// [ResultView].
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Copy progress flows through a channel from the [Copier], so the UI never blocks on the engine.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
