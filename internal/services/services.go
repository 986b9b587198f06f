// package services implements the Spotify Web API client, pagination and track caching
package services

import (
	"context"

	"github.com/desertthunder/tvx/internal/models"
)

// Service is implemented by music service clients.
type Service interface {
	// Authenticate prepares the client from stored tokens or an authorization code.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] for services using the authorization-code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string
}

// PlaylistAPI is the part of the Spotify Web API the scanner and replacer use.
type PlaylistAPI interface {
	TrackFetcher

	CurrentUser(ctx context.Context) (*models.User, error)
	UserPlaylists(pageSize int) *Pager[models.Playlist]
	PlaylistItems(playlistID, fields string) *Pager[models.TrackSlot]
	InsertPlaylistItem(ctx context.Context, playlistID, uri string, position int) (string, error)
	RemovePlaylistItems(ctx context.Context, playlistID string, uris []string, snapshotID string) (string, error)
}

var (
	_ OAuthService = (*SpotifyService)(nil)
	_ PlaylistAPI  = (*SpotifyService)(nil)
)
