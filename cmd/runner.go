package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rsmeets/radiolist/internal/crawler"
	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/repositories"
	"github.com/rsmeets/radiolist/internal/services"
	"github.com/rsmeets/radiolist/internal/shared"
	"github.com/rsmeets/radiolist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, stationCommand, crawlCommand, syncCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads configuration from the path given by the --config flag.
// An explicitly given path must exist; the default path is optional and the
// current config is kept when it is absent.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		if cmd.IsSet("config") {
			return fmt.Errorf("%w: %s", shared.ErrMissingConfig, configPath)
		}
		return nil
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.config = config
	return nil
}

// openDatabase opens the configured database and applies pool settings.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// Setup initializes the configuration file and database schema. The database
// path is taken from the config file named by --config, after creating it
// from the template if it does not exist yet.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back most recent migration")
		return shared.RollbackMigration(db)
	}

	r.logger.Info("running database migrations", "path", r.config.Database.Path)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("setup complete")
	return nil
}

// StationAdd registers a new station.
func (r *Runner) StationAdd(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	station := &models.Station{
		Name:              cmd.String("name"),
		CrawlURL:          cmd.String("url"),
		CrawlStrategy:     cmd.String("strategy"),
		SpotifyPlaylistID: cmd.String("playlist"),
		Enabled:           !cmd.Bool("disabled"),
	}

	if err := repositories.NewStationRepository(db).Create(station); err != nil {
		return err
	}

	r.logger.Info("station created", "id", station.ID, "name", station.Name)
	return nil
}

// StationList prints all registered stations.
func (r *Runner) StationList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stations, err := repositories.NewStationRepository(db).List()
	if err != nil {
		return err
	}

	for _, station := range stations {
		state := "enabled"
		if !station.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(r.output, "%s\t%s\t%s\t%s\t%s\n",
			station.ID, station.Name, station.CrawlStrategy, state, station.SpotifyPlaylistID)
	}

	return nil
}

// Crawl runs the station crawler until interrupted.
func (r *Runner) Crawl(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	loc, err := time.LoadLocation(r.config.Crawler.Timezone)
	if err != nil {
		return fmt.Errorf("%w: unknown crawler timezone: %v", shared.ErrInvalidConfig, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stationRepo := repositories.NewStationRepository(db)
	trackRepo := repositories.NewPlayedTrackRepository(db)

	strategies := map[string]crawler.Strategy{
		crawler.StrategyPlaylist24: crawler.NewPlaylist24(loc, r.logger),
	}
	crawl := crawler.NewCrawler(stationRepo, trackRepo, strategies, r.logger)

	scheduler := tasks.NewScheduler("crawl", r.config.Schedules.Crawl.Std(), r.jobHandler(ctx, "crawl", crawl.CrawlStations), r.logger)
	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()
	r.logger.Info("shutting down crawler")
	return nil
}

// Sync runs the resolver, enricher, and playlist synchronizer until
// interrupted. A playlist load failure aborts before any schedule is armed.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	spotify, err := r.spotifyService(ctx)
	if err != nil {
		return err
	}

	stationRepo := repositories.NewStationRepository(db)
	trackRepo := repositories.NewPlayedTrackRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)

	resolver := tasks.NewResolver(trackRepo, catalogRepo, spotify, r.logger)
	resolver.SetLimits(r.config.Search.MaxAttempts, r.config.Search.SimilarityThreshold)

	enricher := tasks.NewEnricher(catalogRepo, spotify, r.logger)

	loc, err := time.LoadLocation(r.config.Playlist.Timezone)
	if err != nil {
		return fmt.Errorf("%w: unknown playlist timezone: %v", shared.ErrInvalidConfig, err)
	}

	playlist := tasks.NewPlaylistSync(stationRepo, trackRepo, spotify, r.logger)
	playlist.SetWindow(r.config.Playlist.Window.Std(), r.config.Playlist.DaypartStart, r.config.Playlist.DaypartEnd, loc)
	playlist.SetLimits(r.config.Playlist.MaxTracksAdd, r.config.Playlist.PageSize, r.config.Playlist.OffsetCeiling)

	// Membership must be confirmed before any append; starting with an
	// assumed-empty playlist would create user-visible duplicates.
	if err := playlist.Load(ctx); err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}

	schedulers := []*tasks.Scheduler{
		tasks.NewScheduler("resolve", r.config.Schedules.Resolve.Std(), r.jobHandler(ctx, "resolve", resolver.ResolveNext), r.logger),
		tasks.NewScheduler("analyse", r.config.Schedules.Analyse.Std(), r.jobHandler(ctx, "analyse", enricher.EnrichBatch), r.logger),
		tasks.NewScheduler("playlist", r.config.Schedules.Playlist.Std(), r.jobHandler(ctx, "playlist", playlist.SyncCycle), r.logger),
	}

	for _, scheduler := range schedulers {
		scheduler.Start()
		defer scheduler.Stop()
	}

	<-ctx.Done()
	r.logger.Info("shutting down sync services")
	return nil
}

// spotifyService builds the authenticated Spotify client behind the shared throttle.
func (r *Runner) spotifyService(ctx context.Context) (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	throttle := services.NewThrottle(r.config.Search.CallSpacing.Std())

	spotify, err := services.NewSpotifyService(map[string]string{
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
		"market":        creds.Market,
	}, throttle)
	if err != nil {
		return nil, err
	}

	if err := spotify.Authenticate(ctx, map[string]string{
		"refresh_token": creds.RefreshToken,
	}); err != nil {
		return nil, err
	}

	return spotify, nil
}

// jobHandler adapts a context-taking job to the scheduler contract: errors
// are logged, never thrown, and done is always called so the schedule re-arms.
func (r *Runner) jobHandler(ctx context.Context, name string, job func(context.Context) error) tasks.Handler {
	return func(done func()) {
		defer done()
		if err := job(ctx); err != nil {
			r.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}
}
