// package selection turns a scan result and the user's choices into replacement plans
package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

// Mode controls how far a variant choice spreads.
type Mode int

const (
	// Single changes one stolen track entry.
	Single Mode = iota
	// SameStolen changes every entry, in every playlist, with the same source track.
	SameStolen
	// Everywhere changes every entry, in every playlist, that offers the chosen variant.
	Everywhere
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case SameStolen:
		return "same-stolen"
	case Everywhere:
		return "everywhere"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the output of [Mode.String].
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return Single, nil
	case "same-stolen", "samestolen":
		return SameStolen, nil
	case "everywhere":
		return Everywhere, nil
	}
	return Single, fmt.Errorf("%w: unknown variant mode %q", shared.ErrInvalidFlag, s)
}

// Filter decides which flagged catalog groups a bulk selection includes.
// The zero value leaves out every flagged group.
type Filter struct {
	IncludeLive              bool
	IncludeRemixWithoutTV    bool
	IncludeAcousticWithoutTV bool
	IncludeDemoWithoutTV     bool
	IncludeMixWithoutTV      bool
}

// Allows reports whether v belongs in a bulk selection. Entries without available variants never do.
func (f Filter) Allows(v models.StolenVariants) bool {
	switch {
	case !v.HasAvailable():
		return false
	case v.IsLive && !f.IncludeLive:
		return false
	case v.IsRemixWithoutTV && !f.IncludeRemixWithoutTV:
		return false
	case v.IsAcousticWithoutTV && !f.IncludeAcousticWithoutTV:
		return false
	case v.IsDemoWithoutTV && !f.IncludeDemoWithoutTV:
		return false
	case v.IsMixWithoutTV && !f.IncludeMixWithoutTV:
		return false
	}
	return true
}

type variantKey struct {
	playlistID string
	position   int
}

// State holds which stolen tracks are selected and which variant replaces each one.
//
// Selection is keyed by track id per playlist because Spotify removes every occurrence of a
// track at once. Variant choices are keyed by playlist and position.
type State struct {
	selected map[string]map[string]bool
	variants map[variantKey]string
}

// NewState returns an empty selection.
func NewState() *State {
	return &State{
		selected: make(map[string]map[string]bool),
		variants: make(map[variantKey]string),
	}
}

// Default selects, in every playlist, each stolen track that f allows.
func Default(result *models.ScanResult, f Filter) *State {
	s := NewState()
	for _, p := range result.Playlists {
		s.selectAll(p, f)
	}
	return s
}

func (s *State) selectAll(p models.ScannedPlaylist, f Filter) {
	for _, st := range p.StolenTracks {
		if f.Allows(st.Variants) {
			s.set(p.Playlist.ID, st.Track.ID, true)
		}
	}
}

func (s *State) set(playlistID, trackID string, on bool) {
	sel := s.selected[playlistID]
	if on {
		if sel == nil {
			sel = make(map[string]bool)
			s.selected[playlistID] = sel
		}
		sel[trackID] = true
		return
	}
	delete(sel, trackID)
	if len(sel) == 0 {
		delete(s.selected, playlistID)
	}
}

// Select selects or deselects trackID in a playlist.
// Selecting a track that has no available variant fails with [shared.ErrNoVariant].
func (s *State) Select(result *models.ScanResult, playlistID, trackID string, on bool) error {
	p, ok := result.Playlist(playlistID)
	if !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrUnknownTrack, playlistID)
	}

	found := false
	for _, st := range p.StolenTracks {
		if st.Track.ID != trackID {
			continue
		}
		found = true
		if on && !st.Variants.HasAvailable() {
			return fmt.Errorf("%w: %s in %s", shared.ErrNoVariant, st.Track.Name, p.Playlist.Name)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s in %s", shared.ErrUnknownTrack, trackID, p.Playlist.Name)
	}

	s.set(playlistID, trackID, on)
	return nil
}

// SelectPlaylist selects every track f allows in a playlist, or clears its selection.
func (s *State) SelectPlaylist(result *models.ScanResult, playlistID string, on bool, f Filter) error {
	p, ok := result.Playlist(playlistID)
	if !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrUnknownTrack, playlistID)
	}
	if !on {
		delete(s.selected, playlistID)
		return nil
	}
	s.selectAll(*p, f)
	return nil
}

// Exclude deselects trackID in every playlist.
func (s *State) Exclude(trackID string) {
	for playlistID := range s.selected {
		s.set(playlistID, trackID, false)
	}
}

// Retain drops the selection of every playlist not in playlistIDs.
func (s *State) Retain(playlistIDs ...string) {
	keep := make(map[string]bool, len(playlistIDs))
	for _, id := range playlistIDs {
		keep[id] = true
	}
	for id := range s.selected {
		if !keep[id] {
			delete(s.selected, id)
		}
	}
}

// IsSelected reports whether trackID is selected in a playlist.
func (s *State) IsSelected(playlistID, trackID string) bool {
	return s.selected[playlistID][trackID]
}

// Selected returns the selected track ids of a playlist, sorted.
func (s *State) Selected(playlistID string) []string {
	ids := make([]string, 0, len(s.selected[playlistID]))
	for id := range s.selected[playlistID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of selected stolen track entries in result.
func (s *State) Count(result *models.ScanResult) int {
	n := 0
	for _, p := range result.Playlists {
		for _, st := range p.StolenTracks {
			if s.IsSelected(p.Playlist.ID, st.Track.ID) {
				n++
			}
		}
	}
	return n
}

// Variant returns the replacement chosen for an entry, defaulting to its first available id.
// It returns "" when the entry has no available variant.
func (s *State) Variant(playlistID string, stolen models.StolenTrack) string {
	if id, ok := s.variants[variantKey{playlistID, stolen.Position}]; ok {
		return id
	}
	if len(stolen.Variants.IDs) == 0 {
		return ""
	}
	return stolen.Variants.IDs[0]
}

// SetVariant chooses variantID for the entry at position in a playlist and spreads the choice
// according to mode.
func (s *State) SetVariant(result *models.ScanResult, playlistID string, position int, variantID string, mode Mode) error {
	p, ok := result.Playlist(playlistID)
	if !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrUnknownTrack, playlistID)
	}

	var target *models.StolenTrack
	for i := range p.StolenTracks {
		if p.StolenTracks[i].Position == position {
			target = &p.StolenTracks[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: no stolen track at position %d in %s", shared.ErrUnknownTrack, position, p.Playlist.Name)
	}
	if !target.Variants.Contains(variantID) {
		return fmt.Errorf("%w: %s for %s", shared.ErrUnknownVariant, variantID, target.Track.Name)
	}

	if mode == Single {
		s.variants[variantKey{playlistID, position}] = variantID
		return nil
	}

	for _, other := range result.Playlists {
		for _, st := range other.StolenTracks {
			if !st.Variants.Contains(variantID) {
				continue
			}
			if mode == SameStolen && st.Track.ID != target.Track.ID {
				continue
			}
			s.variants[variantKey{other.Playlist.ID, st.Position}] = variantID
		}
	}
	return nil
}

// Plan builds one [models.PlaylistSelection] per playlist with a non-empty selection.
//
// Every selected entry becomes an insert of its chosen variant, in ascending position order, and
// the whole selection becomes StolenIDsToRemove. A selected entry without a variant fails with
// [shared.ErrNoVariant].
func Plan(result *models.ScanResult, state *State) ([]models.PlaylistSelection, error) {
	var plans []models.PlaylistSelection
	for _, p := range result.Playlists {
		sel := state.selected[p.Playlist.ID]
		if len(sel) == 0 {
			continue
		}

		stolen := append([]models.StolenTrack(nil), p.StolenTracks...)
		sort.SliceStable(stolen, func(i, j int) bool { return stolen[i].Position < stolen[j].Position })

		plan := models.PlaylistSelection{
			ID:         p.Playlist.ID,
			Name:       p.Playlist.Name,
			SnapshotID: p.Playlist.SnapshotID,
		}

		for _, st := range stolen {
			if !sel[st.Track.ID] {
				continue
			}
			variant := state.Variant(p.Playlist.ID, st)
			if variant == "" {
				return nil, fmt.Errorf("%w: %s at position %d in %s", shared.ErrNoVariant, st.Track.Name, st.Position, p.Playlist.Name)
			}
			plan.NewTracks = append(plan.NewTracks, models.TrackInsert{Position: st.Position, ReplacementID: variant})
		}

		plan.StolenIDsToRemove = state.Selected(p.Playlist.ID)
		plans = append(plans, plan)
	}
	return plans, nil
}
