package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

// TrackCacheAdapter implements services.TrackCacher using TrackRepository.
//
// Provides write-through track caching with deduplication via service+service_id constraints.
// Known tracks have their metadata refreshed when it changed.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack caches a track from a service.
// Only returns errors for actual failures (not constraint violations).
func (a *TrackCacheAdapter) CacheTrack(service, serviceID string, track models.Track) error {
	existing, err := a.repo.GetByServiceID(service, serviceID)
	switch {
	case err == nil:
		if existing.Name() == track.Name && existing.ISRC() == track.ISRC &&
			existing.Album() == track.Album.Name && existing.URI() == track.URI {
			return nil
		}
		existing.Update(track)
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached track: %w", err)
		}
		return nil
	case !errors.Is(err, shared.ErrNotFound):
		return fmt.Errorf("failed to look up cached track: %w", err)
	}

	err = a.repo.Create(models.NewPersistedTrack(0, service, serviceID, track))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// Lookup returns the cached track for a service id, if any.
func (a *TrackCacheAdapter) Lookup(service, serviceID string) (models.Track, bool) {
	t, err := a.repo.GetByServiceID(service, serviceID)
	if err != nil {
		return models.Track{}, false
	}
	return t.Track(), true
}
