package services

import "github.com/desertthunder/tvx/internal/models"

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyAlbum represents the album fields requested with a track.
type SpotifyAlbum struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
	IsLocal      bool         `json:"is_local"`
	Album        SpotifyAlbum `json:"album"`
	ExternalIDs  externalIDs  `json:"external_ids"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// Owner is the owner reference of a playlist.
type Owner struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Owner        Owner                `json:"owner"`
	SnapshotID   string               `json:"snapshot_id"`
	Tracks       simplePlaylistTracks `json:"tracks"`
	ExternalURLs externalURLs         `json:"external_urls"`
	URI          string               `json:"uri"`
}

// SpotifyPlaylistItem is one entry of a playlist. Track is null for unavailable items.
type SpotifyPlaylistItem struct {
	Track *SpotifyTrack `json:"track"`
}

type spotifyPage[T any] struct {
	Items []T     `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

func (u SpotifyUser) toModel() models.User {
	return models.User{
		ID:          u.ID,
		URI:         u.URI,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
	}
}

func (t SpotifyTrack) toModel() models.Track {
	images := make([]models.Image, 0, len(t.Album.Images))
	for _, img := range t.Album.Images {
		images = append(images, models.Image{URL: img.URL, Height: img.Height, Width: img.Width})
	}

	return models.Track{
		ID:          t.ID,
		Name:        t.Name,
		URI:         t.URI,
		Type:        t.Type,
		ISRC:        t.ExternalIDs.ISRC,
		IsLocal:     t.IsLocal,
		ExternalURL: t.ExternalURLs.Spotify,
		Album: models.Album{
			Name:        t.Album.Name,
			Images:      images,
			ExternalURL: t.Album.ExternalURLs.Spotify,
		},
	}
}

func (p SpotifySimplePlaylist) toModel() models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		OwnerID:     p.Owner.ID,
		OwnerURI:    p.Owner.URI,
		OwnerName:   p.Owner.DisplayName,
		SnapshotID:  p.SnapshotID,
		ExternalURL: p.ExternalURLs.Spotify,
		TrackTotal:  p.Tracks.Total,
	}
}

func (i SpotifyPlaylistItem) toModel() *models.Track {
	if i.Track == nil {
		return nil
	}
	t := i.Track.toModel()
	return &t
}
