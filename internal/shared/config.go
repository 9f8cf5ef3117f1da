package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Auth        AuthConfig        `toml:"auth"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// APIConfig controls how the Web API client talks to Spotify.
type APIConfig struct {
	BaseURL         string `toml:"base_url"`
	AccountsURL     string `toml:"accounts_url"`
	Market          string `toml:"market"`
	Locale          string `toml:"locale"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// AuthConfig contains session settings for the token manager.
type AuthConfig struct {
	Profile              string `toml:"profile"`
	RefreshMarginSeconds int    `toml:"refresh_margin_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig sets the logger verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// Timeout returns the HTTP client timeout as a [time.Duration].
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the catalog cache entry lifetime.
func (c APIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RefreshMargin returns how long before expiry a credential is renewed.
func (c AuthConfig) RefreshMargin() time.Duration {
	return time.Duration(c.RefreshMarginSeconds) * time.Second
}

// Callback splits RedirectURI into the address the local callback server
// listens on and the path it serves. Only plain http redirects can be served
// locally; a missing port means 80 and a missing path means "/".
func (c SpotifyConfig) Callback() (addr, path string, err error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", "", fmt.Errorf("%w: credentials.spotify.redirect_uri: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" || u.Hostname() == "" {
		return "", "", fmt.Errorf("%w: credentials.spotify.redirect_uri must be an http URL on this machine, got %q", ErrInvalidConfig, c.RedirectURI)
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), port), path, nil
}

// TokenURL is the accounts service token endpoint.
func (c APIConfig) TokenURL() string {
	return strings.TrimRight(c.AccountsURL, "/") + "/api/token"
}

// AuthorizeURL is the accounts service authorization page.
func (c APIConfig) AuthorizeURL() string {
	return strings.TrimRight(c.AccountsURL, "/") + "/authorize"
}

// Validate reports missing Spotify application credentials and a redirect
// URI the callback server cannot listen on.
func (c *Config) Validate() error {
	s := c.Credentials.Spotify
	switch {
	case s.ClientID == "" || s.ClientID == "your_spotify_client_id":
		return fmt.Errorf("%w: credentials.spotify.client_id", ErrMissingCredentials)
	case s.ClientSecret == "" || s.ClientSecret == "your_spotify_client_secret":
		return fmt.Errorf("%w: credentials.spotify.client_secret", ErrMissingCredentials)
	case s.RedirectURI == "":
		return fmt.Errorf("%w: credentials.spotify.redirect_uri", ErrInvalidConfig)
	}
	_, _, err := s.Callback()
	return err
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
