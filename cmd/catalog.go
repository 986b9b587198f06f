package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type catalogReport struct {
	Entries  int      `json:"entries"`
	Variants int      `json:"variants"`
	Moved    []string `json:"moved"`
}

// CatalogCheck looks up every replacement id and lists the ones Spotify no longer serves.
func (r *Runner) CatalogCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	api, err := r.playlistAPI(ctx)
	if err != nil {
		return err
	}
	cache := r.trackCache(api)

	resolver, err := r.resolver(cache, true)
	if err != nil {
		return err
	}

	resolved, err := resolver.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve catalog: %w", err)
	}

	report := catalogReport{
		Entries:  resolved.Len(),
		Variants: len(resolved.VariantIDs()),
		Moved:    resolver.Moved(),
	}
	if report.Moved == nil {
		report.Moved = []string{}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader(r.palette.Title("Catalog"))
	r.writePlain("Entries:     %d\n", report.Entries)
	r.writePlain("Available:   %d\n", report.Variants)
	if len(report.Moved) == 0 {
		r.writePlain("%s\n", r.palette.OK("✓ Every replacement is available"))
		return nil
	}

	r.writePlain("%s\n", r.palette.Warn(fmt.Sprintf("%d replacements are unavailable:", len(report.Moved))))
	for _, id := range report.Moved {
		r.writePlain("  - %s\n", id)
	}
	return nil
}
