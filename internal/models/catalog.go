package models

import (
	"slices"
	"time"
)

// PreReleaseTrack is a replacement that Spotify does not serve yet.
type PreReleaseTrack struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	AlbumName   string     `json:"albumName,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	ReleaseTime *time.Time `json:"releaseTime,omitempty"`
	PreSaveURL  string     `json:"preSaveUrl,omitempty"`
}

// StolenVariants is the catalog entry for one stolen recording.
//
// IDs and PreReleaseTracks together hold every replacement variant. The flags only group
// entries for bulk selection.
type StolenVariants struct {
	IDs                 []string          `json:"ids"`
	PreReleaseTracks    []PreReleaseTrack `json:"preReleaseTracks,omitempty"`
	IsLive              bool              `json:"isLive,omitempty"`
	IsRemixWithoutTV    bool              `json:"isRemixWithoutTV,omitempty"`
	IsAcousticWithoutTV bool              `json:"isAcousticWithoutTV,omitempty"`
	IsDemoWithoutTV     bool              `json:"isDemoWithoutTV,omitempty"`
	IsMixWithoutTV      bool              `json:"isMixWithoutTV,omitempty"`
}

// HasAvailable reports whether at least one variant can be inserted today.
func (v StolenVariants) HasAvailable() bool {
	return len(v.IDs) > 0
}

// Contains reports whether id is one of the available variants.
func (v StolenVariants) Contains(id string) bool {
	return slices.Contains(v.IDs, id)
}

// Clone returns a deep copy.
func (v StolenVariants) Clone() StolenVariants {
	c := v
	c.IDs = slices.Clone(v.IDs)
	c.PreReleaseTracks = slices.Clone(v.PreReleaseTracks)
	return c
}
