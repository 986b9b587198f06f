package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tvx/internal/catalog"
	"github.com/desertthunder/tvx/internal/services"
	"github.com/desertthunder/tvx/internal/shared"
)

const maxPlaylistPageSize = 50

// CatalogSource provides the catalog snapshot scans match against.
// [catalog.Resolver] implements it.
type CatalogSource interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Reporter shared.Reporter
	Logger   *log.Logger

	PlaylistPageSize     int  // Playlists requested per page, 1..50
	MaxConcurrency       int  // Playlists processed at once, 0 means unbounded
	SendSnapshotOnRemove bool // Pin removals to the snapshot returned by the last insert
}

// Engine scans a user's playlists for stolen tracks and replaces them.
type Engine struct {
	api      services.PlaylistAPI
	catalog  CatalogSource
	reporter shared.Reporter
	logger   *log.Logger
	opts     EngineOpts
}

// NewEngine creates an [Engine] over api and the given catalog source.
func NewEngine(api services.PlaylistAPI, source CatalogSource, opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Reporter == nil {
		opts.Reporter = shared.NopReporter{}
	}
	if opts.PlaylistPageSize <= 0 || opts.PlaylistPageSize > maxPlaylistPageSize {
		opts.PlaylistPageSize = maxPlaylistPageSize
	}

	return &Engine{
		api:      api,
		catalog:  source,
		reporter: opts.Reporter,
		logger:   shared.WithLogger(opts.Logger, "component", "engine"),
		opts:     opts,
	}
}
