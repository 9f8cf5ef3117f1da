package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/spx/internal/shared"
)

const (
	// DefaultRefreshMargin is how long before expiry a credential is renewed.
	DefaultRefreshMargin = 60 * time.Second

	renewTimeout = 30 * time.Second
	renewKey     = "renew"
)

// State summarizes the session for status output.
type State int

const (
	Idle State = iota
	Authenticated
	Expiring
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expiring:
		return "expiring"
	default:
		return "idle"
	}
}

// Manager owns the single current [Credential] for a session.
//
// It is safe for concurrent use.
type Manager struct {
	config *oauth2.Config
	client *http.Client
	store  Store
	logger *log.Logger
	now    func() time.Time
	margin time.Duration

	mu    sync.Mutex
	cred  *Credential
	gen   uint64 // bumped on every state change
	group singleflight.Group
}

// Option configures a [Manager].
type Option func(*Manager)

// WithStore persists every credential change to s.
func WithStore(s Store) Option { return func(m *Manager) { m.store = s } }

// WithLogger sets the logger used for renewal events.
func WithLogger(l *log.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) Option { return func(m *Manager) { m.client = c } }

// WithRefreshMargin overrides [DefaultRefreshMargin]. Non-positive values are ignored.
func WithRefreshMargin(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.margin = d
		}
	}
}

// NewConfig builds an [oauth2.Config] that sends client credentials in a Basic header.
func NewConfig(clientID, clientSecret, redirectURI string, scopes []string, authURL, tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// NewManager creates an idle [Manager] for the given OAuth2 application.
func NewManager(config *oauth2.Config, opts ...Option) *Manager {
	m := &Manager{
		config: config,
		logger: shared.NewLogger(io.Discard),
		now:    time.Now,
		margin: DefaultRefreshMargin,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AuthURL returns the authorization page URL for the code flow.
func (m *Manager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a credential.
//
// Any failure clears the current session.
func (m *Manager) ExchangeCode(ctx context.Context, code string) error {
	if code == "" {
		m.Clear(ctx)
		return fmt.Errorf("%w: empty authorization code", shared.ErrAuthFailed)
	}

	tok, err := m.config.Exchange(m.httpContext(ctx), code)
	if err != nil {
		m.logger.Error("authorization code exchange failed", "error", err)
		m.Clear(ctx)
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	cred := m.credentialFrom(tok, "")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(ctx, &cred)
	m.logger.Info("signed in", "expires_at", cred.ExpiresAt.Format(time.RFC3339))
	return nil
}

// BearerHeader returns "Bearer <token>", renewing the credential first if it is
// inside the refresh margin.
//
// A missing credential and a failed renewal both return an error wrapping
// [shared.ErrNotAuthenticated].
func (m *Manager) BearerHeader(ctx context.Context) (string, error) {
	m.mu.Lock()
	cred := m.cred
	m.mu.Unlock()

	if cred == nil {
		return "", shared.ErrNotAuthenticated
	}
	if !cred.NeedsRenewal(m.now(), m.margin) {
		return cred.Header(), nil
	}

	ch := m.group.DoChan(renewKey, func() (any, error) {
		return m.renew(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, res.Err)
		}
		return res.Val.(Credential).Header(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// renew refreshes the current credential. Callers go through the singleflight group.
func (m *Manager) renew(ctx context.Context) (Credential, error) {
	m.mu.Lock()
	cur, gen := m.cred, m.gen
	m.mu.Unlock()

	if cur == nil {
		return Credential{}, shared.ErrNotAuthenticated
	}
	// Another flight may have finished between the caller's check and this one.
	if !cur.NeedsRenewal(m.now(), m.margin) {
		return *cur, nil
	}
	if cur.RefreshToken == "" {
		m.clearGeneration(ctx, gen)
		return Credential{}, shared.ErrNoRefreshToken
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renewTimeout)
	defer cancel()

	m.logger.Debug("renewing access token", "expires_at", cur.ExpiresAt.Format(time.RFC3339))

	src := m.config.TokenSource(m.httpContext(ctx), &oauth2.Token{RefreshToken: cur.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		m.logger.Warn("token renewal failed, clearing session", "error", err)
		m.clearGeneration(ctx, gen)
		return Credential{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	next := m.credentialFrom(tok, cur.RefreshToken)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		// A login or logout happened while the request was in flight; it wins.
		if m.cred == nil {
			return Credential{}, shared.ErrNotAuthenticated
		}
		return *m.cred, nil
	}
	m.set(ctx, &next)
	m.logger.Debug("access token renewed", "expires_at", next.ExpiresAt.Format(time.RFC3339))
	return next, nil
}

// Restore loads a previously stored credential. It is a no-op without a [Store].
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	cred, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil || cred.AccessToken == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cred
	c.TokenType = TokenType
	m.cred = &c
	m.gen++
	return nil
}

// Clear wipes the session in memory and in the store.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(ctx, nil)
}

// Current returns a copy of the credential, if any.
func (m *Manager) Current() (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Credential{}, false
	}
	return *m.cred, true
}

// State reports whether a credential is held and whether it is due for renewal.
func (m *Manager) State() State {
	cred, ok := m.Current()
	switch {
	case !ok:
		return Idle
	case cred.NeedsRenewal(m.now(), m.margin):
		return Expiring
	default:
		return Authenticated
	}
}

// clearGeneration wipes the session only if no other change happened since gen.
func (m *Manager) clearGeneration(ctx context.Context, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == gen {
		m.set(ctx, nil)
	}
}

// set replaces the credential and mirrors it to the store. m.mu must be held.
func (m *Manager) set(ctx context.Context, cred *Credential) {
	m.cred = cred
	m.gen++

	if m.store == nil {
		return
	}

	var err error
	if cred == nil {
		err = m.store.Clear(ctx)
	} else {
		err = m.store.Save(ctx, *cred)
	}
	if err != nil {
		m.logger.Warn("failed to persist credential", "error", err)
	}
}

func (m *Manager) credentialFrom(tok *oauth2.Token, previousRefresh string) Credential {
	cred := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    TokenType,
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = previousRefresh
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}

	switch {
	case tok.ExpiresIn > 0:
		cred.ExpiresAt = m.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		cred.ExpiresAt = tok.Expiry
	}
	return cred
}

func (m *Manager) httpContext(ctx context.Context) context.Context {
	if m.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.client)
}
