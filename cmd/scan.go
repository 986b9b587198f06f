package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tvx/internal/formatter"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/services"
	"github.com/desertthunder/tvx/internal/shared"
	"github.com/desertthunder/tvx/internal/tasks"
)

// Scan finds stolen recordings in every playlist the user owns and prints a report.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	api, err := r.playlistAPI(ctx)
	if err != nil {
		return err
	}
	cache := r.trackCache(api)

	result, err := r.runScan(ctx, api, cache)
	if err != nil {
		return err
	}

	if path := cmd.String("save"); path != "" {
		data, err := shared.MarshalJSON(result, true)
		if err != nil {
			return fmt.Errorf("failed to marshal scan: %w", err)
		}
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("scan saved", "path", path)
	}

	opts := formatter.Options{Names: cache, Pretty: cmd.Bool("pretty")}
	output := cmd.String("output")
	if output == "" && format == formatter.Text {
		opts.Palette = r.palette
	}

	report, err := formatter.Scan(result, format, opts)
	if err != nil {
		return err
	}

	if output != "" {
		if err := formatter.WriteFile(output, report); err != nil {
			return err
		}
		r.writePlain("✓ Report written to %s\n", output)
		r.writePlain("  Playlists: %d\n", len(result.Playlists))
		r.writePlain("  Stolen tracks: %d\n", result.StolenCount())
		return nil
	}

	return r.writeBytes(report)
}

// runScan scans the current user's playlists and warms cache with replacement metadata for display.
func (r *Runner) runScan(ctx context.Context, api services.PlaylistAPI, cache *services.TrackCache) (*models.ScanResult, error) {
	user, err := api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	resolver, err := r.resolver(cache, r.config.Catalog.CheckAvailability)
	if err != nil {
		return nil, err
	}

	progress, stop := r.track(tasks.ScanPlaylists)
	result, err := r.engine(api, resolver).ScanUserPlaylists(ctx, *user, progress)
	stop()
	if err != nil {
		return nil, err
	}

	if moved := resolver.Moved(); len(moved) > 0 {
		r.logger.Warn("some replacements are no longer available", "count", len(moved))
	}

	r.warm(ctx, cache, result)
	return result, nil
}

func (r *Runner) warm(ctx context.Context, cache *services.TrackCache, result *models.ScanResult) {
	seen := map[string]bool{}
	ids := []string{}
	for _, p := range result.Playlists {
		for _, st := range p.StolenTracks {
			for _, id := range st.Variants.IDs {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}

	if _, err := cache.GetMany(ctx, ids); err != nil {
		r.logger.Warn("failed to fetch replacement names", "error", err)
	}
}
