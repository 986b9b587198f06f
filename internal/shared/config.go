package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Spotify     APIConfig         `toml:"spotify"`
	Catalog     CatalogConfig     `toml:"catalog"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the most recently issued token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	TokenType    string    `toml:"token_type,omitempty"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// Token returns the stored token, or nil when no access or refresh token has been saved.
func (c SpotifyConfig) Token() *oauth2.Token {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Update copies tok into the config. An empty refresh token keeps the previous one,
// since Spotify does not always rotate it.
func (c *SpotifyConfig) Update(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	c.AccessToken = tok.AccessToken
	c.TokenType = tok.TokenType
	c.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
}

// Map returns the credential fields as a map, masking secrets, for display.
func (c SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": mask(c.ClientSecret),
		"redirect_uri":  c.RedirectURI,
		"access_token":  mask(c.AccessToken),
		"refresh_token": mask(c.RefreshToken),
	}
}

// HasCredentials reports whether client id and secret are configured.
func (c SpotifyConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig tunes how the Spotify Web API is called.
type APIConfig struct {
	APIRoot              string  `toml:"api_root"`
	MaxRetries           int     `toml:"max_retries"`
	RequestsPerSecond    float64 `toml:"requests_per_second"`
	PlaylistPageSize     int     `toml:"playlist_page_size"`
	MaxConcurrency       int     `toml:"max_concurrency"`
	SendSnapshotOnRemove bool    `toml:"send_snapshot_on_remove"`
}

// CatalogConfig locates the stolen track catalog.
type CatalogConfig struct {
	Path              string `toml:"path"`
	CheckAvailability bool   `toml:"check_availability"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch {
	case c.Spotify.MaxRetries < 0:
		return fmt.Errorf("%w: spotify.max_retries must not be negative", ErrInvalidConfig)
	case c.Spotify.RequestsPerSecond < 0:
		return fmt.Errorf("%w: spotify.requests_per_second must not be negative", ErrInvalidConfig)
	case c.Spotify.PlaylistPageSize < 1 || c.Spotify.PlaylistPageSize > 50:
		return fmt.Errorf("%w: spotify.playlist_page_size must be between 1 and 50", ErrInvalidConfig)
	case c.Spotify.MaxConcurrency < 0:
		return fmt.Errorf("%w: spotify.max_concurrency must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SaveConfig writes config to path as TOML, creating parent directories as needed.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****"
}
