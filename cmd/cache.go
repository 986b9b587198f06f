package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/repositories"
)

// CacheTracks lists track metadata cached while scanning and checking the catalog.
func (r *Runner) CacheTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	tracks, err := repositories.NewTrackRepository(db).List(map[string]any{
		"service": "spotify",
		"isrc":    cmd.String("isrc"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]models.Track, 0, len(tracks))
		for _, t := range tracks {
			out = append(out, t.Track())
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		r.writePlain("%s\n", r.palette.Help("No cached tracks. Tracks are cached during 'tvx scan'."))
		return nil
	}

	r.writePlainHeader(r.palette.Title(fmt.Sprintf("Cached tracks (%d)", len(tracks))))
	for _, t := range tracks {
		r.writePlain("%-22s  %-12s  %s", t.ServiceID(), t.ISRC(), t.Name())
		if t.Album() != "" {
			r.writePlain("  %s", r.palette.Help(t.Album()))
		}
		r.writePlain("\n")
	}
	return nil
}
