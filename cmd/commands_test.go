package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/auth"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	tu "github.com/desertthunder/spx/internal/testing"
)

const (
	sourceID = "37i9dQZF1DXcBWIGoYBM5M"
	destID   = "4aawyAB9vmqN3uQ7FjRGTy"
	albumID  = "11dFghVXANMlKmJXsNCbNl"
	showA    = "38bS44xjbVVZ3No3ByF1dJ"
	showB    = "5CfCWKI5pZ28U0uOzXkDHe"
	trackID  = "6rqhFgbbKwnb9MLmUQDhG6"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

// fakeSpotify serves canned Web API responses keyed by "METHOD /path".
type fakeSpotify struct {
	mu       sync.Mutex
	routes   map[string]string
	requests []recorded
}

func (f *fakeSpotify) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
	resp, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"status":404,"message":"Not found."}}`))
		return
	}
	if resp == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(resp))
}

func (f *fakeSpotify) last(method, path string) (recorded, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if r := f.requests[i]; r.method == method && r.path == path {
			return r, true
		}
	}
	return recorded{}, false
}

func playlistJSON(id, name string, tracks ...string) string {
	return `{"id":"` + id + `","name":"` + name + `","owner":{"id":"user-1"},"uri":"spotify:playlist:` + id + `",` +
		`"tracks":{"items":[` + strings.Join(tracks, ",") + `],"total":` + strconv.Itoa(len(tracks)) + `,"next":null}}`
}

func itemJSON(id, name, artist, isrc string) string {
	return `{"added_at":"2024-01-01T00:00:00Z","track":{"id":"` + id + `","name":"` + name + `",` +
		`"artists":[{"id":"a1","name":"` + artist + `"}],"album":{"id":"al1","name":"Album"},` +
		`"duration_ms":180000,"external_ids":{"isrc":"` + isrc + `"},"uri":"spotify:track:` + id + `"}}`
}

func defaultRoutes() map[string]string {
	routes := map[string]string{}
	routes["GET /me"] = `{"id":"user-1","display_name":"Ada","email":"ada@example.com","country":"ES","product":"premium","followers":{"total":1200}}`
	routes["GET /albums/"+albumID] = `{"id":"` + albumID + `","name":"Blue","artists":[{"id":"a1","name":"Joni"}],` +
		`"release_date":"1971-06-22","label":"Reprise","total_tracks":2,` +
		`"tracks":{"items":[{"id":"t1","name":"All I Want","duration_ms":200000},{"id":"t2","name":"My Old Man","duration_ms":200000}],"total":2}}`
	routes["GET /search"] = `{"tracks":{"items":[{"id":"t1","name":"Blue","artists":[{"name":"Joni"}],"album":{"name":"Blue"},"duration_ms":1000,"uri":"spotify:track:t1"},null],"total":2},` +
		`"artists":{"items":[{"id":"a1","name":"Joni","followers":{"total":10}}],"total":1}}`
	routes["PUT /me/player/play"] = ""
	routes["PUT /me/player/pause"] = ""
	routes["GET /me/shows/contains"] = `[true,false]`
	routes["POST /playlists/"+sourceID+"/tracks"] = `{"snapshot_id":"snap"}`
	routes["GET /playlists/"+sourceID] = playlistJSON(sourceID, "Source",
		itemJSON("t1", "Song One", "Artist", "ISRC1"),
		itemJSON("t2", "Song Two", "Artist", "ISRC2"))
	routes["GET /playlists/"+destID] = playlistJSON(destID, "Dest",
		itemJSON("t1", "Song One", "Artist", "ISRC1"),
		itemJSON("t3", "Song Three", "Artist", "ISRC3"))
	return routes
}

type harness struct {
	t      *testing.T
	fake   *fakeSpotify
	url    string
	tokens *tu.StaticTokens
	runner *Runner
	out    *bytes.Buffer
	load   Loader
}

func newHarness(t *testing.T, opts RunnerOpts) *harness {
	t.Helper()

	fake := &fakeSpotify{routes: defaultRoutes()}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tokens := &tu.StaticTokens{Token: "test-token"}
	out := &bytes.Buffer{}

	opts.Output = out
	opts.Logger = shared.NewLogger(io.Discard)
	opts.Spotify = services.NewSpotifyService(tokens, services.SpotifyOptions{BaseURL: srv.URL, Market: "ES"})
	opts.API = services.NewAPIService(tokens, srv.URL, nil)

	return &harness{t: t, fake: fake, url: srv.URL, tokens: tokens, runner: NewRunner(opts), out: out}
}

func (h *harness) run(args ...string) error {
	h.t.Helper()
	return h.runner.app(h.load).Run(context.Background(), append([]string{"spx"}, args...))
}

func setupDB(t *testing.T) (*repositories.CredentialStore, *repositories.ExportRepository) {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewCredentialStore(repositories.NewSessionRepository(db), "default"),
		repositories.NewExportRepository(db)
}

func TestCatalogCommands(t *testing.T) {
	t.Run("me prints the profile", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("me"); err != nil {
			t.Fatalf("me: %v", err)
		}

		got := h.out.String()
		for _, want := range []string{"Ada", "ID:        user-1", "Plan:      premium", "Followers: 1,200"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("me --json", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("me", "--json"); err != nil {
			t.Fatalf("me --json: %v", err)
		}

		var user services.SpotifyUser
		if err := json.Unmarshal(h.out.Bytes(), &user); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, h.out.String())
		}
		if user.ID != "user-1" {
			t.Errorf("user id = %q", user.ID)
		}
	})

	t.Run("album accepts a URI", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("album", "spotify:album:"+albumID); err != nil {
			t.Fatalf("album: %v", err)
		}

		got := h.out.String()
		for _, want := range []string{"Blue", "Artist:   Joni", "Label:    Reprise", "Length:   2 tracks", "My Old Man"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("album rejects a malformed ID", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		err := h.run("album", "not-an-id")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if len(h.fake.requests) != 0 {
			t.Errorf("expected no requests, got %d", len(h.fake.requests))
		}
	})

	t.Run("shows check marks each show", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("shows", "check", showA, showB); err != nil {
			t.Fatalf("shows check: %v", err)
		}

		want := "✓ " + showA + "\n✗ " + showB + "\n"
		if got := h.out.String(); got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
		req, _ := h.fake.last(http.MethodGet, "/me/shows/contains")
		if !strings.Contains(req.query, "ids="+showA+"%2C"+showB) {
			t.Errorf("ids query = %q", req.query)
		}
	})

	t.Run("without a client", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		err := runner.app(nil).Run(context.Background(), []string{"spx", "me"})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("groups results by kind and drops null items", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("search", "--type", "track,artist", "blue"); err != nil {
			t.Fatalf("search: %v", err)
		}

		got := h.out.String()
		if !strings.Contains(got, "Tracks (1 of 2):") {
			t.Errorf("missing track header:\n%s", got)
		}
		if !strings.Contains(got, "Artists (1 of 1):") {
			t.Errorf("missing artist header:\n%s", got)
		}

		req, ok := h.fake.last(http.MethodGet, "/search")
		if !ok {
			t.Fatal("no search request")
		}
		if !strings.Contains(req.query, "type=track%2Cartist") {
			t.Errorf("type query = %q", req.query)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("search", "--json", "blue"); err != nil {
			t.Fatalf("search --json: %v", err)
		}

		var results []services.SearchResult
		if err := json.Unmarshal(h.out.Bytes(), &results); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(results) != 1 || results[0].Kind != services.SearchTrack {
			t.Fatalf("results = %+v", results)
		}
		if len(results[0].Tracks) != 1 {
			t.Errorf("expected null item to be dropped, got %d tracks", len(results[0].Tracks))
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		err := h.run("search", "--type", "podcast", "blue")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlayerCommands(t *testing.T) {
	tc := []struct {
		name string
		arg  string
		body string
	}{
		{name: "track ID", arg: trackID, body: `"uris":["spotify:track:` + trackID + `"]`},
		{name: "album URI", arg: "spotify:album:" + albumID, body: `"context_uri":"spotify:album:` + albumID + `"`},
		{name: "playlist link", arg: "https://open.spotify.com/playlist/" + sourceID + "?si=x", body: `"context_uri":"spotify:playlist:` + sourceID + `"`},
	}

	for _, tt := range tc {
		t.Run("play "+tt.name, func(t *testing.T) {
			h := newHarness(t, RunnerOpts{})
			if err := h.run("player", "play", tt.arg); err != nil {
				t.Fatalf("player play: %v", err)
			}

			req, ok := h.fake.last(http.MethodPut, "/me/player/play")
			if !ok {
				t.Fatal("no play request")
			}
			if !strings.Contains(req.body, tt.body) {
				t.Errorf("body = %s, want it to contain %s", req.body, tt.body)
			}
			if !strings.HasPrefix(h.out.String(), "▶ Playing spotify:") {
				t.Errorf("output = %q", h.out.String())
			}
		})
	}

	t.Run("pause with device", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("player", "pause", "--device", "dev-1"); err != nil {
			t.Fatalf("player pause: %v", err)
		}
		req, _ := h.fake.last(http.MethodPut, "/me/player/pause")
		if req.query != "device_id=dev-1" {
			t.Errorf("query = %q", req.query)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	t.Run("add sends track URIs", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("playlist", "add", sourceID, trackID, "spotify:track:"+trackID); err != nil {
			t.Fatalf("playlist add: %v", err)
		}

		req, ok := h.fake.last(http.MethodPost, "/playlists/"+sourceID+"/tracks")
		if !ok {
			t.Fatal("no add request")
		}
		if strings.Count(req.body, "spotify:track:"+trackID) != 2 {
			t.Errorf("body = %s", req.body)
		}
		if !strings.Contains(h.out.String(), "✓ Added 2 items") {
			t.Errorf("output = %q", h.out.String())
		}
	})

	t.Run("add refuses albums", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		err := h.run("playlist", "add", sourceID, "spotify:album:"+albumID)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("diff", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("playlist", "diff", sourceID, destID); err != nil {
			t.Fatalf("playlist diff: %v", err)
		}

		got := h.out.String()
		for _, want := range []string{
			"Matched: 1 tracks",
			"Missing from destination: 1 tracks",
			"Extra in destination: 1 tracks",
			"Artist - Song Two",
			"Artist - Song Three",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("import names a playlist left incomplete", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		h.fake.routes["POST /users/user-1/playlists"] = `{"id":"` + destID + `","name":"Mix","uri":"spotify:playlist:` + destID + `"}`

		file := filepath.Join(t.TempDir(), "mix.json")
		export := `{"playlist":{"name":"Mix"},"tracks":[{"title":"Song","artist":"Artist","uri":"spotify:track:` + trackID + `"}]}`
		if err := os.WriteFile(file, []byte(export), 0o644); err != nil {
			t.Fatal(err)
		}

		err := h.run("playlist", "import", file)
		if err == nil || !strings.Contains(err.Error(), destID) {
			t.Fatalf("expected an error naming %s, got %v", destID, err)
		}
		if _, ok := h.fake.last(http.MethodPost, "/playlists/"+destID+"/tracks"); !ok {
			t.Error("tracks were never sent to the new playlist")
		}
		if got := h.out.String(); !strings.Contains(got, "(ID: "+destID+") was created but is incomplete") {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("diff needs two playlists", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("playlist", "diff", sourceID); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestExportCommands(t *testing.T) {
	t.Run("writes files and a manifest", func(t *testing.T) {
		dir := t.TempDir()
		h := newHarness(t, RunnerOpts{})

		err := h.run("export", "--format", "csv", "--output", dir, "--workers", "2", "--rate", "100", sourceID, destID)
		if err != nil {
			t.Fatalf("export: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, formatter.ManifestFilename))
		if got := h.out.String(); !strings.Contains(got, "Exported: 2/2 playlists") {
			t.Errorf("output = %s", got)
		}
	})

	t.Run("records history", func(t *testing.T) {
		store, exports := setupDB(t)
		h := newHarness(t, RunnerOpts{Store: store, Exports: exports})

		if err := h.run("export", "--format", "json", "--output", t.TempDir(), sourceID); err != nil {
			t.Fatalf("export: %v", err)
		}
		h.out.Reset()

		if err := h.run("export", "history", "--json"); err != nil {
			t.Fatalf("export history: %v", err)
		}

		var runs []exportRunView
		if err := json.Unmarshal(h.out.Bytes(), &runs); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, h.out.String())
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Format != "json" || runs[0].Succeeded != 1 || runs[0].FinishedAt == nil {
			t.Errorf("run = %+v", runs[0])
		}
	})

	t.Run("history without a database", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("export", "history"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("api", "get", "--compact", "/me"); err != nil {
			t.Fatalf("api get: %v", err)
		}
		if !strings.Contains(h.out.String(), `"id":"user-1"`) {
			t.Errorf("output = %s", h.out.String())
		}
	})

	t.Run("get non-2xx", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("api", "get", "/nope"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if err := h.run("api", "post", "--data", "{", "/me"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestLibraryDump(t *testing.T) {
	h := newHarness(t, RunnerOpts{})
	if err := h.run("library", "dump", "--pretty=false"); err != nil {
		t.Fatalf("library dump: %v", err)
	}

	got := h.out.String()
	if !strings.Contains(got, "✓ Dump complete") {
		t.Errorf("missing completion line:\n%s", got)
	}
	if !strings.Contains(got, `"profile":{`) {
		t.Errorf("missing profile in dump:\n%s", got)
	}
}

func TestAuthCommands(t *testing.T) {
	newAuth := func(t *testing.T) (*Runner, *bytes.Buffer, *repositories.CredentialStore) {
		t.Helper()
		store, _ := setupDB(t)
		manager := auth.NewManager(
			auth.NewConfig("id", "secret", "http://127.0.0.1:3000/callback", nil, "http://auth.invalid/authorize", "http://auth.invalid/api/token"),
			auth.WithStore(store),
		)
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Auth: manager, Store: store, Output: out, Logger: shared.NewLogger(io.Discard)})
		return runner, out, store
	}
	run := func(r *Runner, args ...string) error {
		return r.app(nil).Run(context.Background(), append([]string{"spx"}, args...))
	}

	t.Run("status when signed out", func(t *testing.T) {
		runner, out, _ := newAuth(t)
		if err := run(runner, "auth", "status"); err != nil {
			t.Fatalf("auth status: %v", err)
		}
		if !strings.Contains(out.String(), "✗ Not signed in") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("status token and logout with a stored credential", func(t *testing.T) {
		runner, out, store := newAuth(t)
		ctx := context.Background()
		err := store.Save(ctx, auth.Credential{
			AccessToken:  "stored-token",
			RefreshToken: "refresh",
			Scope:        "user-read-private user-top-read",
			ExpiresAt:    time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.SetProfile("user-1", "Ada"); err != nil {
			t.Fatal(err)
		}
		if err := runner.auth.Restore(ctx); err != nil {
			t.Fatal(err)
		}

		if err := run(runner, "auth", "status", "--json"); err != nil {
			t.Fatalf("auth status: %v", err)
		}
		var status authStatus
		if err := json.Unmarshal(out.Bytes(), &status); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if status.State != "authenticated" || status.UserID != "user-1" || !status.Refreshable || !status.Persisted {
			t.Errorf("status = %+v", status)
		}

		out.Reset()
		if err := run(runner, "auth", "token"); err != nil {
			t.Fatalf("auth token: %v", err)
		}
		if got := out.String(); got != "stored-token\n" {
			t.Errorf("token output = %q", got)
		}

		out.Reset()
		if err := run(runner, "auth", "logout"); err != nil {
			t.Fatalf("auth logout: %v", err)
		}
		if cred, _ := store.Load(ctx); cred != nil {
			t.Errorf("credential should be cleared, got %+v", cred)
		}
		if runner.auth.State() != auth.Idle {
			t.Errorf("state = %v, want idle", runner.auth.State())
		}
	})

	t.Run("without a manager", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		if err := run(runner, "auth", "status"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

// exchangeFunc adapts a function to [server.Exchanger].
type exchangeFunc func(ctx context.Context, code string) error

func (f exchangeFunc) ExchangeCode(ctx context.Context, code string) error { return f(ctx, code) }

func TestCallbackServer(t *testing.T) {
	t.Run("listens on the redirect URI path", func(t *testing.T) {
		var code string
		exchange := exchangeFunc(func(_ context.Context, c string) error {
			code = c
			return nil
		})
		spotify := shared.SpotifyConfig{RedirectURI: "http://127.0.0.1:0/auth/cb"}

		srv, err := newCallbackServer(spotify, exchange, "st", shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatal(err)
		}
		if err := srv.Start(); err != nil {
			t.Fatal(err)
		}

		go func() {
			resp, err := http.Get("http://" + srv.Addr() + "/auth/cb?state=st&code=c0de")
			if err == nil {
				resp.Body.Close()
			}
		}()

		if err := srv.Wait(context.Background(), 5*time.Second); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if code != "c0de" {
			t.Errorf("exchanged code = %q, want c0de", code)
		}
	})

	t.Run("rejects a redirect URI it cannot serve", func(t *testing.T) {
		spotify := shared.SpotifyConfig{RedirectURI: "https://example.com/callback"}
		if _, err := newCallbackServer(spotify, exchangeFunc(nil), "st", nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("login fails fast on a bad redirect URI", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.Spotify.ClientSecret = "secret"
		config.Credentials.Spotify.RedirectURI = "https://example.com/callback"
		manager := auth.NewManager(auth.NewConfig("id", "secret", config.Credentials.Spotify.RedirectURI, nil,
			"http://auth.invalid/authorize", "http://auth.invalid/api/token"))

		h := newHarness(t, RunnerOpts{Config: config, Auth: manager})
		if err := h.run("auth", "login", "--no-browser"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestConfigFlag(t *testing.T) {
	writeConfig := func(t *testing.T) string {
		t.Helper()
		dir := t.TempDir()
		config := shared.DefaultConfig()
		config.API.Market = "SE"
		config.Database.Path = filepath.Join(dir, "spx.db")
		path := filepath.Join(dir, "other.toml")
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		args func(path string) []string
	}{
		{name: "before the command", args: func(p string) []string { return []string{"--config", p, "album", albumID} }},
		{name: "after the command", args: func(p string) []string { return []string{"album", "--config", p, albumID} }},
		{name: "short alias", args: func(p string) []string { return []string{"-c", p, "album", albumID} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t)
			h := newHarness(t, RunnerOpts{})

			var loaded string
			h.load = func(_ context.Context, configPath string) (RunnerOpts, error) {
				loaded = configPath
				config, err := shared.LoadConfig(configPath)
				if err != nil {
					return RunnerOpts{}, err
				}
				return RunnerOpts{
					Config:     config,
					ConfigPath: configPath,
					Output:     h.out,
					Logger:     shared.NewLogger(io.Discard),
					Spotify:    services.NewSpotifyService(h.tokens, services.SpotifyOptions{BaseURL: h.url, Market: config.API.Market}),
				}, nil
			}

			if err := h.run(tt.args(path)...); err != nil {
				t.Fatalf("album: %v", err)
			}
			if loaded != path {
				t.Errorf("loaded config %q, want %q", loaded, path)
			}
			if h.runner.configPath != path || h.runner.config.API.Market != "SE" {
				t.Errorf("runner config = %q market %q", h.runner.configPath, h.runner.config.API.Market)
			}
			req, ok := h.fake.last(http.MethodGet, "/albums/"+albumID)
			if !ok || !strings.Contains(req.query, "market=SE") {
				t.Errorf("album request = %+v, want market=SE", req)
			}
		})
	}

	t.Run("loader error stops the command", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		h.load = func(context.Context, string) (RunnerOpts, error) { return RunnerOpts{}, shared.ErrInvalidConfig }

		if err := h.run("me"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if _, ok := h.fake.last(http.MethodGet, "/me"); ok {
			t.Error("no request should be sent")
		}
	})

	t.Run("wire reads the selected file", func(t *testing.T) {
		path := writeConfig(t)
		logger := shared.NewLogger(io.Discard)

		opts, closeDB := wire(context.Background(), path, loadConfig(path, logger), logger)
		defer closeDB()

		if opts.ConfigPath != path || opts.Config.API.Market != "SE" {
			t.Errorf("opts config = %q market %q", opts.ConfigPath, opts.Config.API.Market)
		}
		if opts.Spotify.Market() != "SE" {
			t.Errorf("spotify market = %q", opts.Spotify.Market())
		}
		if opts.Store == nil || opts.Exports == nil {
			t.Error("expected the database from the selected config")
		}
	})

	t.Run("missing file keeps defaults", func(t *testing.T) {
		config := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), shared.NewLogger(io.Discard))
		if config.API.Market != "ES" {
			t.Errorf("market = %q, want ES", config.API.Market)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes credentials", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		h := newHarness(t, RunnerOpts{})

		err := h.run("setup", "config", "--config", path, "--client-id", "abc", "--client-secret", "shh")
		if err != nil {
			t.Fatalf("setup config: %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if config.Credentials.Spotify.ClientID != "abc" || config.Credentials.Spotify.ClientSecret != "shh" {
			t.Errorf("credentials = %+v", config.Credentials.Spotify)
		}
		if config.API.Market != "ES" {
			t.Errorf("defaults should be kept, market = %q", config.API.Market)
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "spx.db")
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatal(err)
		}

		h := newHarness(t, RunnerOpts{})
		if err := h.run("setup", "database", "--config", path); err != nil {
			t.Fatalf("setup database: %v", err)
		}

		if _, err := os.Stat(config.Database.Path); err != nil {
			t.Errorf("database file not created: %v", err)
		}
		if !strings.Contains(h.out.String(), "✓ Database ready at") {
			t.Errorf("output = %q", h.out.String())
		}
	})
}
