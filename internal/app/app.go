package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"coach-hub/internal/auth"
	"coach-hub/internal/backend"
	"coach-hub/internal/calendar"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/config"
	"coach-hub/internal/handlers"
	"coach-hub/internal/notifications"
	"coach-hub/internal/programcsv"
	"coach-hub/internal/ratelimit"
	"coach-hub/internal/redis"
	"coach-hub/internal/storage"
	"coach-hub/internal/upload"
)

// App holds all the application dependencies
type App struct {
	Config *config.Config
	Logger logging.Logger

	// Exactly one of SQLStore and Backend is set.
	SQLStore *storage.Store
	Backend  *backend.Client

	RedisClient   *redis.Client
	FeedCache     *redis.FeedCache
	UploadLimiter *ratelimit.Limiter

	Auth     *auth.Auth
	Sessions *programcsv.SessionStore
	Ingestor *programcsv.Ingestor
	Executor *upload.Executor
	Feeds    *notifications.FeedSet
	Exporter *calendar.Exporter
	Sweeper  *cron.Cron

	notificationStore notifications.Store
	programStore      upload.ProgramStore
	checks            map[string]handlers.HealthChecker

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
		checks: make(map[string]handlers.HealthChecker),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeStorage(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, feeds are rebuilt from the store on every load
		app.Logger.Warn("Redis initialization failed, continuing without feed cache",
			logging.Err(err))
	}

	if err := app.initializeAuth(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

func (app *App) initializeAuth() error {
	authInstance, err := auth.New(app.Config.JWTSecret, app.Logger)
	if err != nil {
		return err
	}
	app.Auth = authInstance
	return nil
}

func (app *App) initializeServices() error {
	sessions, err := programcsv.NewSessionStore(app.Config.SpoolDir, app.Config.MaxUploadBytes, app.Logger)
	if err != nil {
		return err
	}
	app.Sessions = sessions
	app.Ingestor = programcsv.NewIngestor(programcsv.DefaultIngestorConfig(), app.Logger)
	app.Executor = upload.NewExecutor(app.programStore, app.Logger)
	app.Exporter = calendar.NewExporter()

	// A typed nil *FeedCache must not reach the interface.
	var cache notifications.Cache
	if app.FeedCache != nil {
		cache = app.FeedCache
	}
	app.Feeds = notifications.NewFeedSet(app.notificationStore, cache, app.Logger)
	if app.FeedCache != nil {
		app.watchInvalidations()
	}

	app.Logger.Info("Upload sessions ready",
		logging.String("spool_dir", app.Config.SpoolDir),
		logging.Duration("session_ttl", app.Config.SessionTTL),
	)
	return nil
}

// Handlers builds the HTTP handlers over the app's services.
func (app *App) Handlers() *handlers.Handlers {
	return handlers.New(handlers.Deps{
		Sessions:       app.Sessions,
		Ingestor:       app.Ingestor,
		Executor:       app.Executor,
		Feeds:          app.Feeds,
		Exporter:       app.Exporter,
		MaxUploadBytes: app.Config.MaxUploadBytes,
		Checks:         app.checks,
		Logger:         app.Logger,
	})
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	app.cancel()
	if app.Sweeper != nil {
		<-app.Sweeper.Stop().Done()
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
	if app.SQLStore != nil {
		app.SQLStore.Close()
	}
}
