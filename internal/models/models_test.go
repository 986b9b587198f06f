package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPlaylist(t *testing.T) {
	t.Run("OwnedBy", func(t *testing.T) {
		tests := []struct {
			name     string
			playlist Playlist
			user     User
			want     bool
		}{
			{"same uri", Playlist{OwnerURI: "spotify:user:a"}, User{URI: "spotify:user:a"}, true},
			{"different uri", Playlist{OwnerURI: "spotify:user:b", OwnerID: "a"}, User{ID: "a", URI: "spotify:user:a"}, false},
			{"id fallback", Playlist{OwnerID: "a"}, User{ID: "a"}, true},
			{"nothing known", Playlist{}, User{}, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.playlist.OwnedBy(tt.user); got != tt.want {
					t.Errorf("OwnedBy() = %v, want %v", got, tt.want)
				}
			})
		}
	})
}

func TestTrack(t *testing.T) {
	var nilTrack *Track
	if nilTrack.IsTrack() {
		t.Error("nil track should not be a track")
	}
	if (&Track{Type: "episode"}).IsTrack() {
		t.Error("episode should not be a track")
	}
	if (&Track{Type: "track", IsLocal: true}).IsTrack() {
		t.Error("local file should not be a track")
	}
	if !(&Track{Type: "track"}).IsTrack() {
		t.Error("expected track")
	}
}

func TestStolenVariants(t *testing.T) {
	v := StolenVariants{IDs: []string{"a", "b"}, PreReleaseTracks: []PreReleaseTrack{{ID: "c"}}}
	c := v.Clone()
	c.IDs[0] = "z"
	c.PreReleaseTracks[0].ID = "y"

	if v.IDs[0] != "a" || v.PreReleaseTracks[0].ID != "c" {
		t.Error("Clone should not share backing arrays")
	}
	if !v.Contains("b") || v.Contains("c") {
		t.Error("Contains should only match available ids")
	}
	if (StolenVariants{IDs: []string{}}).HasAvailable() {
		t.Error("empty ids should not be available")
	}
}

func TestScanResult(t *testing.T) {
	t.Run("JSON Round Trip Keeps Reason", func(t *testing.T) {
		result := ScanResult{
			Playlists: []ScannedPlaylist{{
				Playlist:     Playlist{ID: "p1", Name: "One"},
				StolenTracks: []StolenTrack{{Position: 2, Track: Track{ID: "t1"}}},
			}},
			Errors: []ScanError{{Playlist: Playlist{ID: "p2", Name: "Two"}, Reason: errors.New("boom")}},
		}

		data, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"reason":"boom"`) {
			t.Errorf("expected reason text in %s", data)
		}

		var decoded ScanResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if decoded.Errors[0].Reason == nil || decoded.Errors[0].Reason.Error() != "boom" {
			t.Errorf("expected reason boom, got %v", decoded.Errors[0].Reason)
		}
		if p, ok := decoded.Playlist("p1"); !ok || p.StolenTracks[0].Position != 2 {
			t.Errorf("expected playlist p1 with position 2, got %+v", p)
		}
		if decoded.StolenCount() != 1 {
			t.Errorf("expected 1 stolen track, got %d", decoded.StolenCount())
		}
	})

	t.Run("Errors Unwrap", func(t *testing.T) {
		cause := errors.New("cause")
		if !errors.Is(ScanError{Reason: cause}, cause) {
			t.Error("ScanError should unwrap to its reason")
		}
		if !errors.Is(ReplaceError{Reason: cause}, cause) {
			t.Error("ReplaceError should unwrap to its reason")
		}
	})
}

func TestReplacementJob(t *testing.T) {
	plan := PlaylistSelection{
		ID:                "p1",
		Name:              "Road Trip",
		StolenIDsToRemove: []string{"a", "b"},
		NewTracks:         []TrackInsert{{Position: 1, ReplacementID: "x"}},
	}

	t.Run("Completed", func(t *testing.T) {
		j := NewReplacementJob("run", plan, nil)
		j.SetID("id")
		if err := j.Validate(); err != nil {
			t.Fatalf("expected valid job, got %v", err)
		}
		if j.Status() != JobStatusCompleted || j.Inserted() != 1 || j.Removed() != 2 {
			t.Errorf("unexpected job: status=%s inserted=%d removed=%d", j.Status(), j.Inserted(), j.Removed())
		}
	})

	t.Run("Failed", func(t *testing.T) {
		j := NewReplacementJob("run", plan, errors.New("insert failed"))
		j.SetID("id")
		if j.Status() != JobStatusFailed || j.ErrorMessage() != "insert failed" {
			t.Errorf("unexpected job: status=%s error=%q", j.Status(), j.ErrorMessage())
		}
	})

	t.Run("Missing ID", func(t *testing.T) {
		if err := NewReplacementJob("run", plan, nil).Validate(); err == nil {
			t.Error("expected validation error for missing id")
		}
	})

	var _ Model = NewReplacementJob("run", plan, nil)
	var _ Model = NewPersistedTrack(0, "spotify", "t1", Track{Name: "n"})
}
