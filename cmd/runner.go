package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/tvx/internal/catalog"
	"github.com/desertthunder/tvx/internal/formatter"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/repositories"
	"github.com/desertthunder/tvx/internal/services"
	"github.com/desertthunder/tvx/internal/shared"
	"github.com/desertthunder/tvx/internal/tasks"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Spotify clients, the database and the engine are created lazily from the loaded config
// unless they were injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	api        services.PlaylistAPI
	db         *sql.DB
	logger     *log.Logger
	reporter   shared.Reporter
	output     io.Writer
	input      io.Reader
	palette    *formatter.Palette

	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	API        services.PlaylistAPI // Overrides the Spotify client for scans and replacements
	DB         *sql.DB
	Logger     *log.Logger
	Reporter   shared.Reporter
	Output     io.Writer
	Input      io.Reader
	Palette    *formatter.Palette
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Reporter == nil {
		opts.Reporter = shared.NewLogReporter(opts.Logger)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		spotify:     opts.Spotify,
		api:         opts.API,
		db:          opts.DB,
		logger:      opts.Logger,
		reporter:    opts.Reporter,
		output:      opts.Output,
		input:       opts.Input,
		palette:     opts.Palette,
		openBrowser: shared.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, scanCommand, replaceCommand, catalogCommand, historyCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare applies the common --config and --verbose flags.
//
// The config is reloaded only when --config names a different file than the one already loaded.
func (r *Runner) prepare(cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.close()
	r.config, r.configPath = config, path
	r.spotify, r.db = nil, nil
	return nil
}

// spotifyService returns the Spotify client, creating it from config without installing a token.
func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	api := r.config.Spotify
	logger := shared.WithLogger(r.logger, "service", "spotify")

	svc, err := services.NewSpotifyService(
		map[string]string{
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
			"redirect_uri":  creds.RedirectURI,
		},
		services.WithAPIRoot(api.APIRoot),
		services.WithLogger(logger),
		services.WithTransport(services.NewRetryTransport(http.DefaultTransport, api.MaxRetries, api.RequestsPerSecond, logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w (set credentials.spotify in %s)", err, r.configPath)
	}

	r.spotify = svc
	return svc, nil
}

// playlistAPI returns an authenticated client. Refreshed tokens are written back to the config file.
func (r *Runner) playlistAPI(ctx context.Context) (services.PlaylistAPI, error) {
	if r.api != nil {
		return r.api, nil
	}

	svc, err := r.spotifyService()
	if err != nil {
		return nil, err
	}

	if svc.Token() == nil {
		token := r.config.Credentials.Spotify.Token()
		if token == nil {
			return nil, fmt.Errorf("%w: run 'tvx auth' first", shared.ErrNotAuthenticated)
		}
		svc.SetTokenRefreshCallback(r.saveToken)
		svc.SetToken(ctx, token)
	}

	r.api = svc
	return svc, nil
}

func (r *Runner) saveToken(token *oauth2.Token) {
	r.config.Credentials.Spotify.Update(token)
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save refreshed token", "error", err)
		return
	}
	r.logger.Debug("saved refreshed token", "path", r.configPath, "expiry", token.Expiry)
}

// database opens the configured database and applies pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}

	r.db = db
	return db, nil
}

// trackCache builds a Track Cache over api that writes through to sqlite when a database is available.
func (r *Runner) trackCache(api services.PlaylistAPI) *services.TrackCache {
	cache := services.NewTrackCache(api, r.reporter)

	db, err := r.database()
	if err != nil {
		r.logger.Warn("track metadata will not be persisted", "error", err)
		return cache
	}
	cache.SetPersister(repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db)), r.logger)
	return cache
}

// resolver loads the catalog file. The availability probe runs through cache when probe is set.
func (r *Runner) resolver(cache *services.TrackCache, probe bool) (*catalog.Resolver, error) {
	base, err := catalog.LoadFile(r.config.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("%w (set catalog.path in %s)", err, r.configPath)
	}
	r.logger.Debug("catalog loaded", "path", r.config.Catalog.Path, "entries", base.Len())

	var lookup catalog.TrackLookup
	if probe {
		lookup = cache
	}
	return catalog.NewResolver(base, lookup, shared.WithLogger(r.logger, "component", "catalog")), nil
}

func (r *Runner) engine(api services.PlaylistAPI, source tasks.CatalogSource) *tasks.Engine {
	return tasks.NewEngine(api, source, tasks.EngineOpts{
		Reporter:             r.reporter,
		Logger:               r.logger,
		PlaylistPageSize:     r.config.Spotify.PlaylistPageSize,
		MaxConcurrency:       r.config.Spotify.MaxConcurrency,
		SendSnapshotOnRemove: r.config.Spotify.SendSnapshotOnRemove,
	})
}

// track prints progress updates until the returned stop function is called.
func (r *Runner) track(phase tasks.Phase) (tasks.ProgressFunc, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	return tasks.Channel(phase, progressCh), func() {
		close(progressCh)
		<-done
	}
}

// confirm asks a yes/no question on the runner's input. Anything but y/yes is a no.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N]: ", question)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// readScan loads a scan result saved with "tvx scan --save".
func readScan(path string) (*models.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan: %w", err)
	}

	var result models.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode scan %s: %v", shared.ErrInvalidInput, path, err)
	}
	return &result, nil
}
