// Raw authenticated access to arbitrary Web API endpoints
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIService makes raw authenticated requests against the Web API and
// returns the response as-is, including non-2xx statuses.
type APIService struct {
	tokens     TokenProvider
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a raw API client rooted at baseURL.
func NewAPIService(tokens TokenProvider, baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		tokens:     tokens,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get sends a GET request to path, relative to the base URL unless absolute.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post sends data as a JSON body.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	if len(data) > 0 && !json.Valid(data) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return a.do(ctx, http.MethodPost, path, data)
}

func (a *APIService) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return a.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	header, err := a.tokens.BearerHeader(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
