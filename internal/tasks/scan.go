package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tvx/internal/catalog"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/services"
)

// ScanUserPlaylists finds every playlist owned by user that contains stolen tracks.
//
// Each playlist is scanned as soon as it is discovered while enumeration continues.
// A playlist that fails to scan is recorded in [models.ScanResult.Errors] and reported;
// the others are unaffected. Progress is reported once per discovered playlist with the
// best known total. Failing to enumerate the playlists is fatal: scans already started
// are awaited and the enumeration error is returned.
func (e *Engine) ScanUserPlaylists(ctx context.Context, user models.User, progress ProgressFunc) (*models.ScanResult, error) {
	cat, err := e.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}

	c := newCounter(progress)
	settler := NewSettler[*models.ScannedPlaylist](e.opts.MaxConcurrency)
	pager := e.api.UserPlaylists(e.opts.PlaylistPageSize)

	var discovered []models.Playlist
	for pager.Next(ctx) {
		p := pager.Item()
		c.setTotal(max(pager.Total(), len(discovered)+1))
		discovered = append(discovered, p)

		settler.GoSettled(ctx, func(ctx context.Context) (*models.ScannedPlaylist, error) {
			return e.scanPlaylist(ctx, cat, user, p)
		}, func(Result[*models.ScannedPlaylist]) {
			c.advance(1, p.Name)
		})
	}
	if pager.Err() == nil {
		c.setTotal(len(discovered))
	}

	results := settler.Wait()
	if err := pager.Err(); err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	out := &models.ScanResult{
		Playlists: []models.ScannedPlaylist{},
		Errors:    []models.ScanError{},
	}
	for i, r := range results {
		switch {
		case r.Err != nil:
			pl := discovered[i]
			out.Errors = append(out.Errors, models.ScanError{Playlist: pl, Reason: r.Err})
			e.reporter.Report(r.Err, "playlist", pl.Name, "id", pl.ID)
		case r.Value != nil:
			out.Playlists = append(out.Playlists, *r.Value)
		}
	}

	e.logger.Debug("scan finished",
		"playlists", len(discovered),
		"affected", len(out.Playlists),
		"stolen", out.StolenCount(),
		"errors", len(out.Errors),
	)
	return out, nil
}

// scanPlaylist returns nil without error when the playlist is not owned by user
// or holds no stolen tracks.
func (e *Engine) scanPlaylist(ctx context.Context, cat *catalog.Catalog, user models.User, p models.Playlist) (*models.ScannedPlaylist, error) {
	if !p.OwnedBy(user) {
		return nil, nil
	}

	slots, err := e.api.PlaylistItems(p.ID, services.PlaylistItemFields).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks of %q: %w", p.Name, err)
	}

	stolen := cat.MatchSlots(slots)
	if len(stolen) == 0 {
		return nil, nil
	}
	return &models.ScannedPlaylist{Playlist: p, StolenTracks: stolen}, nil
}
