package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/desertthunder/spx/internal/shared"
)

const (
	// DefaultBaseURL is the Web API root all endpoints are relative to.
	DefaultBaseURL = "https://api.spotify.com/v1"

	defaultCacheTTL = 10 * time.Minute
)

// TokenProvider supplies the Authorization header for each request.
//
// [auth.Manager] satisfies it.
type TokenProvider interface {
	BearerHeader(ctx context.Context) (string, error)
}

// SpotifyOptions configures a [SpotifyService]. Zero values fall back to defaults.
type SpotifyOptions struct {
	BaseURL    string
	Market     string
	Locale     string
	HTTPClient *http.Client
	Logger     *log.Logger
	CacheSize  int // 0 disables the catalog cache
	CacheTTL   time.Duration
}

// SpotifyService is the Web API client. Every call asks its [TokenProvider] for
// a bearer header, then maps HTTP failures onto the shared error sentinels.
type SpotifyService struct {
	tokens     TokenProvider
	baseURL    string
	market     string
	locale     string
	httpClient *http.Client
	logger     *log.Logger
	cache      *expirable.LRU[string, []byte]
}

// NewSpotifyService creates a client that authenticates through tokens.
func NewSpotifyService(tokens TokenProvider, opts SpotifyOptions) *SpotifyService {
	s := &SpotifyService{
		tokens:     tokens,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		market:     opts.Market,
		locale:     opts.Locale,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(io.Discard)
	}
	if opts.CacheSize > 0 {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		s.cache = expirable.NewLRU[string, []byte](opts.CacheSize, nil, ttl)
	}
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetLogger replaces the request logger. Not safe to call while requests are in flight.
func (s *SpotifyService) SetLogger(l *log.Logger) { s.logger = l }

// Market returns the default market sent with catalog requests.
func (s *SpotifyService) Market() string { return s.market }

// APIError is the error object returned by the Web API.
type APIError struct {
	Status     int    `json:"status"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("spotify API error %d: %s (retry after %s)", e.Status, msg, e.RetryAfter)
	}
	return fmt.Sprintf("spotify API error %d: %s", e.Status, msg)
}

// Unwrap maps the status code onto a shared sentinel so callers can use [errors.Is].
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrTokenExpired
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	default:
		return shared.ErrAPIRequest
	}
}

func parseAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		// Regular endpoints send an object, the accounts service sends a string.
		if err := json.Unmarshal(envelope.Error, apiErr); err != nil {
			var code string
			if json.Unmarshal(envelope.Error, &code) == nil {
				apiErr.Message = code
			}
		}
		apiErr.Status = resp.StatusCode
	}

	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}

// endpointURL resolves endpoint against the base URL. Absolute URLs, such as a
// page's Next link, are used unchanged.
func (s *SpotifyService) endpointURL(endpoint string, query url.Values) string {
	u := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		u = s.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

// send performs an authenticated request and returns the raw response body.
func (s *SpotifyService) send(ctx context.Context, method, rawURL string, body any) ([]byte, error) {
	header, err := s.tokens.BearerHeader(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("spotify request", "method", method, "url", rawURL, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp, data)
	}
	return data, nil
}

// doRequest performs an authenticated request and decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	data, err := s.send(ctx, method, s.endpointURL(endpoint, query), body)
	if err != nil {
		return err
	}
	return decode(data, result)
}

// getCached is doRequest for GETs of immutable catalog objects.
func (s *SpotifyService) getCached(ctx context.Context, endpoint string, query url.Values, result any) error {
	rawURL := s.endpointURL(endpoint, query)
	if s.cache != nil {
		if data, ok := s.cache.Get(rawURL); ok {
			return decode(data, result)
		}
	}

	data, err := s.send(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Add(rawURL, data)
	}
	return decode(data, result)
}

// PurgeCache drops every cached catalog response.
func (s *SpotifyService) PurgeCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func decode(data []byte, result any) error {
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// marketQuery returns a query with the default market applied, if any.
func (s *SpotifyService) marketQuery() url.Values {
	q := url.Values{}
	if s.market != "" {
		q.Set("market", s.market)
	}
	return q
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	if offset = clampOffset(offset); offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}

func merge(dst url.Values, src url.Values) url.Values {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	return dst
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s id", shared.ErrMissingArgument, kind)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the Web API.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func escape(id string) string { return url.PathEscape(id) }
