package models

// Image is an artwork reference.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Album is the subset of album metadata shown next to a track.
type Album struct {
	Name        string  `json:"name"`
	Images      []Image `json:"images,omitempty"`
	ExternalURL string  `json:"external_url,omitempty"`
}

// ImageURL returns the first (largest) image, or "".
func (a Album) ImageURL() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

// Track is a Spotify track with its recording code.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Type        string `json:"type"`
	ISRC        string `json:"isrc,omitempty"`
	IsLocal     bool   `json:"is_local,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	Album       Album  `json:"album"`
}

// IsTrack reports whether the item is a catalog track, as opposed to an episode or local file.
func (t *Track) IsTrack() bool {
	return t != nil && t.Type == "track" && !t.IsLocal
}

// User is the authenticated Spotify user.
type User struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Playlist is playlist metadata without its tracks.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerID     string `json:"owner_id"`
	OwnerURI    string `json:"owner_uri"`
	OwnerName   string `json:"owner_name,omitempty"`
	SnapshotID  string `json:"snapshot_id"`
	ExternalURL string `json:"external_url,omitempty"`
	TrackTotal  int    `json:"track_total"`
}

// OwnedBy reports whether u owns the playlist. URIs are compared when both are known, ids otherwise.
func (p Playlist) OwnedBy(u User) bool {
	if p.OwnerURI != "" && u.URI != "" {
		return p.OwnerURI == u.URI
	}
	return p.OwnerID != "" && p.OwnerID == u.ID
}

// TrackSlot is one entry of a playlist's track list. Track is nil for unavailable slots.
type TrackSlot struct {
	Position int    `json:"position"` // zero-based
	Track    *Track `json:"track"`
}
