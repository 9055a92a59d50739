package app

import (
	"fmt"

	"coach-hub/internal/backend"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/storage"
)

func (app *App) initializeStorage() error {
	if app.Config.UsesSQL() {
		return app.initializeSQLStore()
	}
	return app.initializeBackend()
}

func (app *App) initializeSQLStore() error {
	switch app.Config.DatabaseType {
	case "postgres", "postgresql":
		app.Logger.Info("Database: PostgreSQL",
			logging.String("host", app.Config.PostgresHost),
			logging.String("port", app.Config.PostgresPort),
			logging.String("database", app.Config.PostgresDB),
		)
	default:
		app.Logger.Info("Database: SQLite", logging.String("path", app.Config.DatabasePath))
	}

	store, err := storage.Open(app.Config, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.SQLStore = store
	app.notificationStore = store
	app.programStore = store
	app.checks["database"] = store
	return nil
}

func (app *App) initializeBackend() error {
	client, err := backend.New(backend.Config{
		BaseURL: app.Config.BackendAPIURL,
		APIKey:  app.Config.BackendAPIKey,
		Timeout: app.Config.BackendTimeout,
	}, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence API client: %w", err)
	}

	app.Logger.Info("Persistence: REST API",
		logging.String("url", app.Config.BackendAPIURL),
		logging.Duration("timeout", app.Config.BackendTimeout),
	)

	app.Backend = client
	app.notificationStore = client
	app.programStore = client
	app.checks["persistence_api"] = client
	return nil
}
