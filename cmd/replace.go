package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tvx/internal/formatter"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/repositories"
	"github.com/desertthunder/tvx/internal/selection"
	"github.com/desertthunder/tvx/internal/shared"
	"github.com/desertthunder/tvx/internal/tasks"
)

// variantChoice is a parsed --variant flag.
type variantChoice struct {
	playlistID string
	position   int
	variantID  string
}

// parseVariant parses PLAYLIST:POSITION=VARIANT.
func parseVariant(s string) (variantChoice, error) {
	target, variant, ok := strings.Cut(s, "=")
	if !ok || variant == "" {
		return variantChoice{}, fmt.Errorf("%w: --variant %q must look like PLAYLIST:POSITION=VARIANT", shared.ErrInvalidFlag, s)
	}

	playlist, pos, ok := strings.Cut(target, ":")
	if !ok || playlist == "" {
		return variantChoice{}, fmt.Errorf("%w: --variant %q must look like PLAYLIST:POSITION=VARIANT", shared.ErrInvalidFlag, s)
	}

	position, err := strconv.Atoi(pos)
	if err != nil || position < 1 {
		return variantChoice{}, fmt.Errorf("%w: --variant %q has an invalid position", shared.ErrInvalidFlag, s)
	}

	return variantChoice{playlistID: playlist, position: position, variantID: variant}, nil
}

func filterFromFlags(cmd *cli.Command) selection.Filter {
	return selection.Filter{
		IncludeLive:              cmd.Bool("include-live"),
		IncludeRemixWithoutTV:    cmd.Bool("include-remix"),
		IncludeAcousticWithoutTV: cmd.Bool("include-acoustic"),
		IncludeDemoWithoutTV:     cmd.Bool("include-demo"),
		IncludeMixWithoutTV:      cmd.Bool("include-mix"),
	}
}

// Replace scans (or loads a saved scan), selects replacements and edits the playlists.
//
// Every executed or dry-run plan is recorded as a replacement job.
func (r *Runner) Replace(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	mode, err := selection.ParseMode(cmd.String("variant-mode"))
	if err != nil {
		return err
	}

	choices := []variantChoice{}
	for _, v := range cmd.StringSlice("variant") {
		choice, err := parseVariant(v)
		if err != nil {
			return err
		}
		choices = append(choices, choice)
	}

	api, err := r.playlistAPI(ctx)
	if err != nil {
		return err
	}
	cache := r.trackCache(api)

	var result *models.ScanResult
	if from := cmd.String("from"); from != "" {
		if result, err = readScan(from); err != nil {
			return err
		}
		r.logger.Info("loaded scan", "path", from, "playlists", len(result.Playlists))
		r.warm(ctx, cache, result)
	} else if result, err = r.runScan(ctx, api, cache); err != nil {
		return err
	}

	for _, e := range result.Errors {
		r.writePlain("%s %s: %v\n", r.palette.Warn("skipped"), e.Playlist.Name, e.Reason)
	}

	state := selection.Default(result, filterFromFlags(cmd))
	if ids := cmd.StringSlice("playlist"); len(ids) > 0 {
		state.Retain(ids...)
	}
	for _, id := range cmd.StringSlice("exclude") {
		state.Exclude(id)
	}
	for _, c := range choices {
		if err := state.SetVariant(result, c.playlistID, c.position, c.variantID, mode); err != nil {
			return err
		}
	}

	plans, err := selection.Plan(result, state)
	if err != nil {
		return err
	}

	opts := formatter.Options{Names: cache, Palette: r.palette}
	if err := r.writeBytes(formatter.PlanToText(plans, opts)); err != nil {
		return err
	}
	if len(plans) == 0 {
		return nil
	}

	runID := shared.GenerateID()
	dryRun := cmd.Bool("dry-run")

	if dryRun {
		r.record(runID, plans, nil, models.JobStatusPlanned)
		r.writePlain("%s\n", r.palette.Help("Dry run: no playlists were changed."))
		return nil
	}

	if !cmd.Bool("yes") && !r.confirm("Apply these changes?") {
		r.writePlain("Aborted.\n")
		return nil
	}

	progress, stop := r.track(tasks.ReplaceTracks)
	errs := r.engine(api, nil).ReplaceTracks(ctx, plans, progress)
	stop()

	r.record(runID, plans, errs, models.JobStatusCompleted)
	if err := r.writeBytes(formatter.ReplaceErrorsToText(errs, len(plans), r.palette)); err != nil {
		return err
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d playlists failed", shared.ErrAPIRequest, len(errs), len(plans))
	}
	return nil
}

// record stores one job per plan. Storage failures are logged, never returned,
// since the playlists have already been edited.
func (r *Runner) record(runID string, plans []models.PlaylistSelection, errs []models.ReplaceError, status models.JobStatus) {
	failed := make(map[string]error, len(errs))
	for _, e := range errs {
		failed[e.Playlist.ID] = e.Reason
	}

	jobs := make([]*models.ReplacementJob, 0, len(plans))
	for _, plan := range plans {
		job := models.NewReplacementJob(runID, plan, failed[plan.ID])
		if status == models.JobStatusPlanned {
			job.SetStatus(status)
		}
		jobs = append(jobs, job)
	}

	db, err := r.database()
	if err != nil {
		r.logger.Warn("replacement history not recorded", "error", err)
		return
	}
	if err := repositories.NewReplacementJobRepository(db).CreateAll(jobs); err != nil {
		r.logger.Warn("replacement history not recorded", "error", err)
		return
	}
	r.logger.Debug("recorded replacement jobs", "run_id", runID, "jobs", len(jobs))
}
