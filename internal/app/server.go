package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"coach-hub/internal/common/logging"
	"coach-hub/internal/ratelimit"
	"coach-hub/internal/server"
)

// RunServer builds the router and the HTTP server
func (app *App) RunServer() (*server.Server, http.Handler) {
	router := mux.NewRouter()
	var uploadLimit func(http.Handler) http.Handler
	if app.UploadLimiter != nil {
		uploadLimit = app.UploadLimiter.HTTPMiddleware(ratelimit.ActorKey("csv_upload"))
	}
	SetupRoutes(router, app.Handlers(), app.Auth.RequireAuth, uploadLimit)

	srv := server.New(router, app.Config.Port)
	return srv, router
}

// Shutdown stops background work before the server is closed
func (app *App) Shutdown(ctx context.Context) error {
	app.cancel()

	if app.Sweeper != nil {
		select {
		case <-app.Sweeper.Stop().Done():
			app.Logger.Info("Session sweeper stopped")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if app.Sessions != nil {
		// Drop every uncommitted upload and its spool file
		n := app.Sessions.Sweep(0)
		app.Logger.Info("Upload sessions released", logging.Int("count", n))
	}
	return nil
}
