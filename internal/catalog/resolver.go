package catalog

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
	"golang.org/x/sync/singleflight"
)

// probeBatchSize matches the id limit of GET /tracks.
const probeBatchSize = 50

// TrackLookup resolves track ids, nil for ids Spotify does not serve.
type TrackLookup interface {
	GetMany(ctx context.Context, ids []string) ([]*models.Track, error)
}

// Resolver produces the catalog snapshot used by scans.
//
// The first call to [Resolver.Catalog] probes every replacement id and moves the ones Spotify
// does not serve into PreReleaseTracks. Concurrent callers wait for that probe, and every later
// caller gets the same snapshot.
type Resolver struct {
	base   *Catalog
	lookup TrackLookup
	logger *log.Logger

	group singleflight.Group

	mu       sync.RWMutex
	resolved *Catalog
	moved    []string
}

// NewResolver creates a [Resolver]. A nil lookup disables the availability probe.
func NewResolver(base *Catalog, lookup TrackLookup, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Resolver{base: base, lookup: lookup, logger: logger}
}

// Catalog returns the resolved snapshot, probing on first use.
//
// The probe runs under the first caller's ctx. If that ctx is cancelled the lookups fail, the
// unprobed snapshot is stored and every later call returns it for the life of the Resolver.
func (r *Resolver) Catalog(ctx context.Context) (*Catalog, error) {
	if c := r.snapshot(); c != nil {
		return c, nil
	}

	v, err, _ := r.group.Do("catalog", func() (any, error) {
		if c := r.snapshot(); c != nil {
			return c, nil
		}

		resolved, moved := r.probe(ctx)

		r.mu.Lock()
		r.resolved, r.moved = resolved, moved
		r.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Moved returns the ids the probe found unavailable. It is empty until [Resolver.Catalog] has run.
func (r *Resolver) Moved() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.moved...)
}

func (r *Resolver) snapshot() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// probe looks up every replacement id. A failed batch leaves its ids where they are.
func (r *Resolver) probe(ctx context.Context) (*Catalog, []string) {
	if r.lookup == nil {
		return r.base, nil
	}

	ids := r.base.VariantIDs()
	gone := make(map[string]bool)
	for _, batch := range shared.Chunk(ids, probeBatchSize) {
		tracks, err := r.lookup.GetMany(ctx, batch)
		if err != nil {
			r.logger.Warn("availability check failed, keeping variants", "ids", len(batch), "error", err)
			continue
		}
		for i, id := range batch {
			if i >= len(tracks) || tracks[i] == nil {
				gone[id] = true
			}
		}
	}

	if len(gone) == 0 {
		return r.base, nil
	}

	resolved, moved := r.base.WithUnavailable(gone)
	r.logger.Info("moved unavailable variants to pre-release", "count", len(moved))
	return resolved, moved
}
