package tasks

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/services"
	"github.com/desertthunder/tvx/internal/shared"
)

// ReplaceTracks applies every plan concurrently and returns the plans that failed.
//
// For each playlist the replacements are inserted first, one request per track,
// at the position of the stolen track they replace. Inserts run from the highest
// position down so earlier positions stay valid. Every occurrence of the stolen
// tracks is then removed in batches. A failing playlist does not affect the others
// and changes already made to it are not rolled back.
//
// Progress counts inserted tracks across all plans.
func (e *Engine) ReplaceTracks(ctx context.Context, plans []models.PlaylistSelection, progress ProgressFunc) []models.ReplaceError {
	total := 0
	for _, p := range plans {
		total += len(p.NewTracks)
	}

	c := newCounter(progress)
	c.setTotal(total)

	settler := NewSettler[struct{}](e.opts.MaxConcurrency)
	for _, plan := range plans {
		counted := 0
		settler.GoSettled(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.replacePlaylist(ctx, plan, c, &counted)
		}, func(Result[struct{}]) {
			c.advance(len(plan.NewTracks)-counted, plan.Name)
		})
	}

	errs := []models.ReplaceError{}
	for i, r := range settler.Wait() {
		if r.Err == nil {
			continue
		}
		plan := plans[i]
		errs = append(errs, models.ReplaceError{Playlist: plan, Reason: r.Err})
		e.reporter.Report(r.Err, "playlist", plan.Name, "id", plan.ID)
	}
	return errs
}

// replacePlaylist advances c once per insert and keeps counted in step. The caller
// accounts for the inserts left uncounted when it settles.
func (e *Engine) replacePlaylist(ctx context.Context, plan models.PlaylistSelection, c *counter, counted *int) error {
	inserts := slices.Clone(plan.NewTracks)
	slices.SortStableFunc(inserts, func(a, b models.TrackInsert) int {
		return cmp.Compare(b.Position, a.Position)
	})

	snapshot := plan.SnapshotID
	for _, ins := range inserts {
		if ins.Position < 1 {
			return fmt.Errorf("%w: position %d of %s", shared.ErrInvalidArgument, ins.Position, ins.ReplacementID)
		}

		id, err := e.api.InsertPlaylistItem(ctx, plan.ID, services.TrackURI(ins.ReplacementID), ins.Position-1)
		if err != nil {
			return fmt.Errorf("failed to insert %s at position %d: %w", ins.ReplacementID, ins.Position, err)
		}
		if id != "" {
			snapshot = id
		}

		*counted++
		c.advance(1, plan.Name)
	}

	if err := e.removeTracks(ctx, plan, snapshot); err != nil {
		return fmt.Errorf("failed to remove stolen tracks: %w", err)
	}

	e.logger.Debug("playlist updated", "playlist", plan.Name, "inserted", len(inserts), "removed", len(plan.StolenIDsToRemove))
	return nil
}

// removeTracks removes every occurrence of the stolen tracks, issuing all batches at once.
func (e *Engine) removeTracks(ctx context.Context, plan models.PlaylistSelection, snapshot string) error {
	if len(plan.StolenIDsToRemove) == 0 {
		return nil
	}
	if !e.opts.SendSnapshotOnRemove {
		snapshot = ""
	}

	uris := make([]string, len(plan.StolenIDsToRemove))
	for i, id := range plan.StolenIDsToRemove {
		uris[i] = services.TrackURI(id)
	}

	var g errgroup.Group
	for _, batch := range shared.Chunk(uris, services.MaxRemovePerRequest) {
		g.Go(func() error {
			_, err := e.api.RemovePlaylistItems(ctx, plan.ID, batch, snapshot)
			return err
		})
	}
	return g.Wait()
}
