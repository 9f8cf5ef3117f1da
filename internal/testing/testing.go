// Package testing holds test doubles and filesystem helpers shared by the
// package tests.
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// MockService is a test double for [services.Service].
//
// Exports maps playlist IDs to the export returned by ExportPlaylist. IDs in
// Failures return the mapped error instead. A non-nil ImportErr makes
// ImportPlaylist return the created playlist with no tracks and that error.
type MockService struct {
	Playlists []models.Playlist
	Exports   map[string]*models.PlaylistExport
	Failures  map[string]error
	Tracks    map[string]*models.Track
	ListErr   error
	ImportErr error
	Delay     time.Duration

	mu       sync.Mutex
	exported []string
	imported []*models.PlaylistExport
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if m.Playlists == nil {
		return []models.Playlist{}, nil
	}
	return m.Playlists, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	for i := range m.Playlists {
		if m.Playlists[i].ID == playlistID {
			return &m.Playlists[i], nil
		}
	}
	return nil, shared.ErrPlaylistNotFound
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	m.exported = append(m.exported, playlistID)
	m.mu.Unlock()

	if err, ok := m.Failures[playlistID]; ok {
		return nil, err
	}
	if export, ok := m.Exports[playlistID]; ok {
		return export, nil
	}
	p, err := m.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return &models.PlaylistExport{Playlist: *p, Tracks: []models.Track{}}, nil
}

func (m *MockService) ImportPlaylist(ctx context.Context, playlist *models.PlaylistExport) (*models.Playlist, error) {
	m.mu.Lock()
	m.imported = append(m.imported, playlist)
	m.mu.Unlock()

	created := playlist.Playlist
	created.ID = "imported-" + playlist.Playlist.ID
	if m.ImportErr != nil {
		return &created, m.ImportErr
	}
	created.TrackCount = len(playlist.Tracks)
	return &created, nil
}

func (m *MockService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	if t, ok := m.Tracks[shared.NormalizeTrackKey(title, artist)]; ok {
		return t, nil
	}
	return nil, shared.ErrTrackNotFound
}

func (m *MockService) Name() string { return "mock" }

// Exported returns the playlist IDs passed to ExportPlaylist, in call order.
func (m *MockService) Exported() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.exported...)
}

// Imported returns every export passed to ImportPlaylist.
func (m *MockService) Imported() []*models.PlaylistExport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.PlaylistExport(nil), m.imported...)
}

// StaticTokens is a token provider that always returns the same bearer token,
// or Err when set.
type StaticTokens struct {
	Token string
	Err   error

	mu    sync.Mutex
	calls int
}

func (s *StaticTokens) BearerHeader(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return "Bearer " + s.Token, nil
}

// Calls reports how many headers were requested.
func (s *StaticTokens) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	errWrite = errors.New("testing: write refused")
	errRead  = errors.New("testing: read refused")
)

// FWriter rejects every write.
type FWriter struct{}

func (f *FWriter) Write([]byte) (int, error) { return 0, errWrite }

// LimitedWriter forwards to target until it has accepted maxWrites writes.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errWrite
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper answers every request with the same response and error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(resp *http.Response, err error) *MockRoundTripper {
	return &MockRoundTripper{response: resp, err: err}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (f *FCloser) Read([]byte) (int, error) { return 0, errRead }
func (f *FCloser) Close() error             { return nil }

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return wd
}

// MustChdir changes into dir and restores the previous directory on cleanup.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	prev := MustGetwd(t)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected file %s: %v", path, err)
	case info.IsDir():
		t.Errorf("%s is a directory, expected a file", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected directory %s: %v", path, err)
	case !info.IsDir():
		t.Errorf("%s is not a directory", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
