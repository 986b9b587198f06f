package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tvx/internal/formatter"
	"github.com/desertthunder/tvx/internal/repositories"
)

type jobRecord struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Inserted     int    `json:"inserted"`
	Removed      int    `json:"removed"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// History lists recorded replacement jobs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	jobs, err := repositories.NewReplacementJobRepository(db).List(map[string]any{
		"run_id": cmd.String("run"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		records := make([]jobRecord, 0, len(jobs))
		for _, j := range jobs {
			records = append(records, jobRecord{
				ID:           j.ID(),
				RunID:        j.RunID(),
				PlaylistID:   j.PlaylistID(),
				PlaylistName: j.PlaylistName(),
				Inserted:     j.Inserted(),
				Removed:      j.Removed(),
				Status:       string(j.Status()),
				Error:        j.ErrorMessage(),
				CreatedAt:    j.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	return r.writeBytes(formatter.JobsToText(jobs, r.palette))
}
