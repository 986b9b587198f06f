// package catalog matches playlist tracks against the stolen recording table
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

// Catalog maps ISRCs of stolen recordings to their replacements. It is immutable.
type Catalog struct {
	entries map[string]models.StolenVariants
}

// New copies entries into a [Catalog].
func New(entries map[string]models.StolenVariants) *Catalog {
	c := &Catalog{entries: make(map[string]models.StolenVariants, len(entries))}
	for isrc, v := range entries {
		c.entries[isrc] = v.Clone()
	}
	return c
}

// Load reads a JSON object of the form {"<ISRC>": {"ids": [...], ...}, ...}.
func Load(r io.Reader) (*Catalog, error) {
	var entries map[string]models.StolenVariants
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalog: %v", shared.ErrInvalidInput, err)
	}
	for isrc, v := range entries {
		if v.IDs == nil {
			v.IDs = []string{}
			entries[isrc] = v
		}
	}
	return &Catalog{entries: entries}, nil
}

// LoadFile reads the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Match returns the variants for isrc. The returned value shares no memory with the catalog.
func (c *Catalog) Match(isrc string) (models.StolenVariants, bool) {
	v, ok := c.entries[isrc]
	if !ok {
		return models.StolenVariants{}, false
	}
	return v.Clone(), true
}

// MatchSlots returns a [models.StolenTrack] for every slot whose track is in the catalog.
//
// Empty slots, local files, episodes and tracks without an ISRC are skipped.
// Positions are 1-based.
func (c *Catalog) MatchSlots(slots []models.TrackSlot) []models.StolenTrack {
	var stolen []models.StolenTrack
	for _, slot := range slots {
		if !slot.Track.IsTrack() || slot.Track.ISRC == "" {
			continue
		}
		variants, ok := c.Match(slot.Track.ISRC)
		if !ok {
			continue
		}
		stolen = append(stolen, models.StolenTrack{
			Position: slot.Position + 1,
			Track:    *slot.Track,
			Variants: variants,
		})
	}
	return stolen
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// ISRCs returns every key in sorted order.
func (c *Catalog) ISRCs() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VariantIDs returns every distinct available replacement id, in ISRC order.
func (c *Catalog) VariantIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, isrc := range c.ISRCs() {
		for _, id := range c.entries[isrc].IDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// WithUnavailable returns a new catalog where every id in gone is moved from IDs to the front
// of PreReleaseTracks. Moved ids keep their relative order.
func (c *Catalog) WithUnavailable(gone map[string]bool) (*Catalog, []string) {
	next := &Catalog{entries: make(map[string]models.StolenVariants, len(c.entries))}
	var moved []string

	for isrc, v := range c.entries {
		v = v.Clone()
		var kept []string
		var pre []models.PreReleaseTrack
		for _, id := range v.IDs {
			if gone[id] {
				pre = append(pre, models.PreReleaseTrack{ID: id})
				moved = append(moved, id)
				continue
			}
			kept = append(kept, id)
		}

		if len(pre) > 0 {
			if kept == nil {
				kept = []string{}
			}
			v.IDs = kept
			v.PreReleaseTracks = append(pre, v.PreReleaseTracks...)
		}
		next.entries[isrc] = v
	}

	slices.Sort(moved)
	return next, slices.Compact(moved)
}
