package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tvx.db" {
			t.Errorf("expected database path ./tvx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Spotify.APIRoot != "https://api.spotify.com/v1/" {
			t.Errorf("expected default api root, got %s", config.Spotify.APIRoot)
		}

		if config.Spotify.MaxRetries != 3 {
			t.Errorf("expected 3 retries, got %d", config.Spotify.MaxRetries)
		}

		if config.Spotify.SendSnapshotOnRemove {
			t.Error("snapshot should not be sent on remove by default")
		}

		if !config.Catalog.CheckAvailability {
			t.Error("expected availability check to be enabled by default")
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[spotify]
max_concurrency = 4
send_snapshot_on_remove = true

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Spotify.MaxConcurrency != 4 || !config.Spotify.SendSnapshotOnRemove {
			t.Errorf("spotify section not applied: %+v", config.Spotify)
		}

		if config.Spotify.PlaylistPageSize != 50 {
			t.Errorf("expected default page size to survive partial config, got %d", config.Spotify.PlaylistPageSize)
		}

		if !config.Credentials.Spotify.HasCredentials() {
			t.Error("expected credentials to be present")
		}
	})

	t.Run("LoadConfig Missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[spotify]\nplaylist_page_size = 500\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig Round Trip Token", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "config.toml")
		config := DefaultConfig()
		expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		})

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		tok := loaded.Credentials.Spotify.Token()
		if tok == nil {
			t.Fatal("expected token to be persisted")
		}
		if tok.AccessToken != "access" || tok.RefreshToken != "refresh" {
			t.Errorf("unexpected token: %+v", tok)
		}
		if !tok.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, tok.Expiry)
		}
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Token Nil When Empty", func(t *testing.T) {
		if tok := (SpotifyConfig{}).Token(); tok != nil {
			t.Errorf("expected nil token, got %+v", tok)
		}
	})

	t.Run("Update Keeps Refresh Token", func(t *testing.T) {
		c := SpotifyConfig{RefreshToken: "old"}
		c.Update(&oauth2.Token{AccessToken: "new-access"})

		if c.RefreshToken != "old" {
			t.Errorf("expected refresh token to be kept, got %q", c.RefreshToken)
		}
		if c.AccessToken != "new-access" {
			t.Errorf("expected access token to be updated, got %q", c.AccessToken)
		}
	})

	t.Run("Map Masks Secrets", func(t *testing.T) {
		c := SpotifyConfig{ClientID: "id", ClientSecret: "supersecret"}
		m := c.Map()

		if m["client_secret"] != "supe****" {
			t.Errorf("expected masked secret, got %q", m["client_secret"])
		}
		if m["client_id"] != "id" {
			t.Errorf("expected client id unmasked, got %q", m["client_id"])
		}
	})
}
