package services

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

// TrackFetcher loads up to [MaxTracksPerRequest] tracks by id, aligned with ids, nil for missing tracks.
type TrackFetcher interface {
	SeveralTracks(ctx context.Context, ids []string) ([]*models.Track, error)
}

// TrackCacher persists fetched track metadata.
type TrackCacher interface {
	CacheTrack(service, serviceID string, track models.Track) error
}

// TrackCache memoizes track lookups for one session.
//
// Entries are never evicted. Ids Spotify reports as missing are remembered as nil and are not
// requested again. Concurrent callers may fetch the same uncached id twice.
type TrackCache struct {
	fetcher   TrackFetcher
	reporter  shared.Reporter
	persister TrackCacher
	logger    *log.Logger

	mu     sync.RWMutex
	tracks map[string]*models.Track
}

// NewTrackCache creates an empty cache. A nil reporter discards warnings.
func NewTrackCache(fetcher TrackFetcher, reporter shared.Reporter) *TrackCache {
	if reporter == nil {
		reporter = shared.NopReporter{}
	}
	return &TrackCache{
		fetcher:  fetcher,
		reporter: reporter,
		logger:   shared.NewLogger(io.Discard),
		tracks:   make(map[string]*models.Track),
	}
}

// SetPersister writes every fetched track through to p. Persistence failures are only logged.
func (c *TrackCache) SetPersister(p TrackCacher, logger *log.Logger) {
	c.persister = p
	if logger != nil {
		c.logger = logger
	}
}

// GetMany returns the tracks for ids, in order, fetching uncached ids in batches.
// Missing tracks are nil and are reported once per call as a single warning.
func (c *TrackCache) GetMany(ctx context.Context, ids []string) ([]*models.Track, error) {
	missing := c.uncached(ids)

	var notFound []string
	var fetchErr error
	for _, batch := range shared.Chunk(missing, MaxTracksPerRequest) {
		tracks, err := c.fetcher.SeveralTracks(ctx, batch)
		if err != nil {
			fetchErr = err
			break
		}

		c.mu.Lock()
		for i, id := range batch {
			var t *models.Track
			if i < len(tracks) {
				t = tracks[i]
			}
			c.tracks[id] = t
			if t == nil {
				notFound = append(notFound, id)
			}
		}
		c.mu.Unlock()

		c.persist(tracks)
	}

	if len(notFound) > 0 {
		c.reporter.Warn("track info not found", "ids", notFound)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return c.TryGetMany(ids), nil
}

// TryGet returns the cached track, or nil. It never performs I/O.
func (c *TrackCache) TryGet(id string) *models.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tracks[id]
}

// TryGetMany returns the cached tracks for ids, nil for misses. It never performs I/O.
func (c *TrackCache) TryGetMany(ids []string) []*models.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tracks := make([]*models.Track, len(ids))
	for i, id := range ids {
		tracks[i] = c.tracks[id]
	}
	return tracks
}

// Known reports whether id has been looked up, and whether Spotify served it.
func (c *TrackCache) Known(id string) (found, known bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, known := c.tracks[id]
	return t != nil, known
}

// Len returns the number of ids looked up so far, including missing ones.
func (c *TrackCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// uncached returns the distinct ids not looked up yet, in first-seen order.
func (c *TrackCache) uncached(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	var missing []string
	for _, id := range ids {
		if _, ok := c.tracks[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	return missing
}

func (c *TrackCache) persist(tracks []*models.Track) {
	if c.persister == nil {
		return
	}
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if err := c.persister.CacheTrack("spotify", t.ID, *t); err != nil {
			c.logger.Warn("failed to cache track", "id", t.ID, "error", err)
		}
	}
}
