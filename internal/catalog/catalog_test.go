package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

const testCatalogJSON = `{
	"USCJY0803275": {"ids": ["tv1", "tv2"]},
	"USCJY1431309": {"ids": [], "preReleaseTracks": [{"id": "pre1", "name": "Blank Space (Taylor's Version)"}]},
	"USCJY0803276": {"ids": ["tv3"], "isLive": true}
}`

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(strings.NewReader(testCatalogJSON))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return c
}

func TestLoad(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		c := mustLoad(t)
		if c.Len() != 3 {
			t.Errorf("expected 3 entries, got %d", c.Len())
		}

		v, ok := c.Match("USCJY0803276")
		if !ok || !v.IsLive || v.IDs[0] != "tv3" {
			t.Errorf("unexpected entry: %+v", v)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := Load(strings.NewReader(`[`))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("LoadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		if err := os.WriteFile(path, []byte(testCatalogJSON), 0644); err != nil {
			t.Fatal(err)
		}
		c, err := LoadFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Len() != 3 {
			t.Errorf("expected 3 entries, got %d", c.Len())
		}

		if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestCatalog(t *testing.T) {
	t.Run("Match Returns Copies", func(t *testing.T) {
		c := mustLoad(t)
		v, _ := c.Match("USCJY0803275")
		v.IDs[0] = "changed"

		again, _ := c.Match("USCJY0803275")
		if again.IDs[0] != "tv1" {
			t.Error("mutating a match must not change the catalog")
		}
	})

	t.Run("New Copies Input", func(t *testing.T) {
		entries := map[string]models.StolenVariants{"X": {IDs: []string{"a"}}}
		c := New(entries)
		entries["X"].IDs[0] = "b"

		v, _ := c.Match("X")
		if v.IDs[0] != "a" {
			t.Error("New must deep-copy its input")
		}
	})

	t.Run("MatchSlots", func(t *testing.T) {
		c := mustLoad(t)
		slots := []models.TrackSlot{
			{Position: 0, Track: &models.Track{ID: "s0", Type: "track", ISRC: "USCJY0803275"}},
			{Position: 1, Track: nil},
			{Position: 2, Track: &models.Track{ID: "s2", Type: "track", ISRC: "UNKNOWN"}},
			{Position: 3, Track: &models.Track{ID: "s3", Type: "episode", ISRC: "USCJY0803275"}},
			{Position: 4, Track: &models.Track{ID: "s4", Type: "track", ISRC: "USCJY0803275", IsLocal: true}},
			{Position: 5, Track: &models.Track{ID: "s5", Type: "track"}},
			{Position: 6, Track: &models.Track{ID: "s6", Type: "track", ISRC: "USCJY1431309"}},
		}

		stolen := c.MatchSlots(slots)
		if len(stolen) != 2 {
			t.Fatalf("expected 2 matches, got %d: %+v", len(stolen), stolen)
		}
		if stolen[0].Position != 1 || stolen[0].Track.ID != "s0" {
			t.Errorf("expected first match at position 1, got %+v", stolen[0])
		}
		if stolen[1].Position != 7 || stolen[1].Variants.HasAvailable() {
			t.Errorf("expected pre-release only match at position 7, got %+v", stolen[1])
		}
	})

	t.Run("VariantIDs", func(t *testing.T) {
		c := New(map[string]models.StolenVariants{
			"B": {IDs: []string{"x", "y"}},
			"A": {IDs: []string{"y", "z"}},
		})
		got := c.VariantIDs()
		want := []string{"y", "z", "x"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("WithUnavailable Front Inserts In Order", func(t *testing.T) {
		c := New(map[string]models.StolenVariants{
			"A": {IDs: []string{"a1", "a2", "a3", "a4"}, PreReleaseTracks: []models.PreReleaseTrack{{ID: "old"}}},
			"B": {IDs: []string{"b1"}},
		})

		next, moved := c.WithUnavailable(map[string]bool{"a3": true, "a1": true, "b1": true})

		a, _ := next.Match("A")
		if strings.Join(a.IDs, ",") != "a2,a4" {
			t.Errorf("expected remaining ids a2,a4, got %v", a.IDs)
		}
		var pre []string
		for _, p := range a.PreReleaseTracks {
			pre = append(pre, p.ID)
		}
		if strings.Join(pre, ",") != "a1,a3,old" {
			t.Errorf("expected pre-release a1,a3,old, got %v", pre)
		}

		b, _ := next.Match("B")
		if b.IDs == nil || len(b.IDs) != 0 {
			t.Errorf("expected empty non-nil ids, got %#v", b.IDs)
		}

		if strings.Join(moved, ",") != "a1,a3,b1" {
			t.Errorf("unexpected moved ids %v", moved)
		}

		orig, _ := c.Match("A")
		if len(orig.IDs) != 4 {
			t.Error("original catalog must not change")
		}
	})
}
