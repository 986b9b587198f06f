package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/desertthunder/tvx/internal/models"
)

// fakeTracks serves tracks for ids in known and counts how often each id is requested.
type fakeTracks struct {
	mu      sync.Mutex
	known   map[string]bool
	calls   [][]string
	perID   map[string]int
	failOn  string
	failErr error
}

func newFakeTracks(ids ...string) *fakeTracks {
	f := &fakeTracks{known: map[string]bool{}, perID: map[string]int{}}
	for _, id := range ids {
		f.known[id] = true
	}
	return f
}

func (f *fakeTracks) SeveralTracks(_ context.Context, ids []string) ([]*models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), ids...))
	tracks := make([]*models.Track, len(ids))
	for i, id := range ids {
		if id == f.failOn {
			return nil, f.failErr
		}
		f.perID[id]++
		if f.known[id] {
			tracks[i] = &models.Track{ID: id, Name: "Track " + id, Type: "track"}
		}
	}
	return tracks, nil
}

type recordingReporter struct {
	mu    sync.Mutex
	warns [][]any
}

func (r *recordingReporter) Report(error, ...any) {}

func (r *recordingReporter) Warn(_ string, kv ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, kv)
}

type memoryCacher struct {
	mu     sync.Mutex
	stored []string
}

func (m *memoryCacher) CacheTrack(service, serviceID string, _ models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, service+":"+serviceID)
	return nil
}

func TestTrackCache(t *testing.T) {
	t.Run("GetMany Aligns Results And Dedupes", func(t *testing.T) {
		f := newFakeTracks("a", "b")
		cache := NewTrackCache(f, nil)

		tracks, err := cache.GetMany(context.Background(), []string{"a", "b", "a"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 3 || tracks[0].ID != "a" || tracks[1].ID != "b" || tracks[2].ID != "a" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
		if len(f.calls) != 1 || len(f.calls[0]) != 2 {
			t.Errorf("expected one call with 2 distinct ids, got %v", f.calls)
		}
	})

	t.Run("Overlapping Calls Fetch Each ID Once", func(t *testing.T) {
		f := newFakeTracks("a", "b", "c")
		cache := NewTrackCache(f, nil)

		if _, err := cache.GetMany(context.Background(), []string{"a", "b", "missing"}); err != nil {
			t.Fatal(err)
		}
		if _, err := cache.GetMany(context.Background(), []string{"b", "c", "missing"}); err != nil {
			t.Fatal(err)
		}

		for id, n := range f.perID {
			if n != 1 {
				t.Errorf("id %s fetched %d times", id, n)
			}
		}
		if len(f.calls) != 2 || len(f.calls[1]) != 1 || f.calls[1][0] != "c" {
			t.Errorf("expected second call to fetch only c, got %v", f.calls)
		}
	})

	t.Run("Batches Of Fifty", func(t *testing.T) {
		ids := make([]string, 120)
		for i := range ids {
			ids[i] = fmt.Sprintf("id%d", i)
		}
		f := newFakeTracks(ids...)
		cache := NewTrackCache(f, nil)

		if _, err := cache.GetMany(context.Background(), ids); err != nil {
			t.Fatal(err)
		}

		if len(f.calls) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(f.calls))
		}
		for i, want := range []int{50, 50, 20} {
			if len(f.calls[i]) != want {
				t.Errorf("batch %d: expected %d ids, got %d", i, want, len(f.calls[i]))
			}
		}
	})

	t.Run("Missing Tracks Produce One Warning", func(t *testing.T) {
		f := newFakeTracks("a")
		reporter := &recordingReporter{}
		cache := NewTrackCache(f, reporter)

		tracks, err := cache.GetMany(context.Background(), []string{"a", "x", "y"})
		if err != nil {
			t.Fatal(err)
		}
		if tracks[1] != nil || tracks[2] != nil {
			t.Error("expected nil placeholders for missing tracks")
		}
		if len(reporter.warns) != 1 {
			t.Fatalf("expected one warning, got %d", len(reporter.warns))
		}
		ids, ok := reporter.warns[0][1].([]string)
		if !ok || len(ids) != 2 {
			t.Errorf("expected warning to carry both ids, got %v", reporter.warns[0])
		}

		if found, known := cache.Known("x"); found || !known {
			t.Errorf("expected x to be known missing, got found=%v known=%v", found, known)
		}
	})

	t.Run("TryGetMany Never Fetches", func(t *testing.T) {
		f := newFakeTracks("a")
		cache := NewTrackCache(f, nil)

		got := cache.TryGetMany([]string{"a", "b"})
		if got[0] != nil || got[1] != nil {
			t.Error("expected misses before any fetch")
		}
		if cache.TryGet("a") != nil {
			t.Error("expected TryGet miss")
		}
		if len(f.calls) != 0 {
			t.Errorf("TryGet must not fetch, got %v", f.calls)
		}

		if _, err := cache.GetMany(context.Background(), []string{"a"}); err != nil {
			t.Fatal(err)
		}
		if cache.TryGet("a") == nil {
			t.Error("expected hit after GetMany")
		}
	})

	t.Run("Fetch Error Keeps Earlier Batches", func(t *testing.T) {
		ids := make([]string, 60)
		for i := range ids {
			ids[i] = fmt.Sprintf("id%d", i)
		}
		f := newFakeTracks(ids...)
		f.failOn, f.failErr = "id55", errors.New("boom")
		cache := NewTrackCache(f, nil)

		if _, err := cache.GetMany(context.Background(), ids); err == nil {
			t.Fatal("expected error")
		}
		if cache.TryGet("id0") == nil {
			t.Error("expected first batch to stay cached")
		}
		if cache.Len() != 50 {
			t.Errorf("expected 50 cached ids, got %d", cache.Len())
		}
	})

	t.Run("Write Through", func(t *testing.T) {
		f := newFakeTracks("a")
		persister := &memoryCacher{}
		cache := NewTrackCache(f, nil)
		cache.SetPersister(persister, nil)

		if _, err := cache.GetMany(context.Background(), []string{"a", "gone"}); err != nil {
			t.Fatal(err)
		}
		if len(persister.stored) != 1 || persister.stored[0] != "spotify:a" {
			t.Errorf("expected only found track persisted, got %v", persister.stored)
		}
	})

	t.Run("Concurrent Callers", func(t *testing.T) {
		f := newFakeTracks("a", "b", "c")
		cache := NewTrackCache(f, nil)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := cache.GetMany(context.Background(), []string{"a", "b", "c"}); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()

		if cache.Len() != 3 {
			t.Errorf("expected 3 cached ids, got %d", cache.Len())
		}
	})
}
