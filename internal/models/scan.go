package models

import (
	"encoding/json"
	"errors"
)

// StolenTrack is one playlist slot matched against the catalog.
//
// Position is 1-based in the playlist's order at scan time and is never recomputed.
type StolenTrack struct {
	Position int            `json:"position"`
	Track    Track          `json:"track"`
	Variants StolenVariants `json:"variants"`
}

// ScannedPlaylist is an owned playlist with at least one stolen track.
type ScannedPlaylist struct {
	Playlist     Playlist      `json:"playlist"`
	StolenTracks []StolenTrack `json:"stolen_tracks"`
}

// ScanError records a playlist that could not be scanned.
type ScanError struct {
	Playlist Playlist
	Reason   error
}

func (e ScanError) Error() string {
	return e.Playlist.Name + ": " + reasonText(e.Reason)
}

func (e ScanError) Unwrap() error { return e.Reason }

type errorRecord[T any] struct {
	Playlist T      `json:"playlist"`
	Reason   string `json:"reason"`
}

func (e ScanError) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorRecord[Playlist]{Playlist: e.Playlist, Reason: reasonText(e.Reason)})
}

// UnmarshalJSON restores the reason as an opaque error; its type is not preserved.
func (e *ScanError) UnmarshalJSON(data []byte) error {
	var rec errorRecord[Playlist]
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	e.Playlist = rec.Playlist
	if rec.Reason != "" {
		e.Reason = errors.New(rec.Reason)
	}
	return nil
}

// ScanResult is the output of one scan. Neither list has a meaningful order.
type ScanResult struct {
	Playlists []ScannedPlaylist `json:"playlists"`
	Errors    []ScanError       `json:"errors"`
}

// Playlist finds a scanned playlist by id.
func (r *ScanResult) Playlist(id string) (*ScannedPlaylist, bool) {
	for i := range r.Playlists {
		if r.Playlists[i].Playlist.ID == id {
			return &r.Playlists[i], true
		}
	}
	return nil, false
}

// StolenCount returns the number of stolen track entries across all playlists.
func (r *ScanResult) StolenCount() int {
	n := 0
	for _, p := range r.Playlists {
		n += len(p.StolenTracks)
	}
	return n
}

// TrackInsert places ReplacementID at the 1-based Position of the original playlist.
type TrackInsert struct {
	Position      int    `json:"position"`
	ReplacementID string `json:"replacement_id"`
}

// PlaylistSelection is the edit plan for one playlist. NewTracks is ascending by position.
type PlaylistSelection struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	SnapshotID        string        `json:"snapshot_id"`
	StolenIDsToRemove []string      `json:"stolen_ids_to_remove"`
	NewTracks         []TrackInsert `json:"new_tracks"`
}

// ReplaceError records a playlist that may have been left partially edited.
type ReplaceError struct {
	Playlist PlaylistSelection
	Reason   error
}

func (e ReplaceError) Error() string {
	return e.Playlist.Name + ": " + reasonText(e.Reason)
}

func (e ReplaceError) Unwrap() error { return e.Reason }

func (e ReplaceError) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorRecord[PlaylistSelection]{Playlist: e.Playlist, Reason: reasonText(e.Reason)})
}

// Progress of a running task. Total == 0 means the total is not known yet.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Label   string `json:"label"`
}

// NoProgress is reported before any work has finished.
var NoProgress = Progress{}

func reasonText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
