package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"coach-hub/internal/handlers"
	"coach-hub/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application. uploadLimit
// may be nil.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, authMiddleware, uploadLimit func(http.Handler) http.Handler) {
	if uploadLimit == nil {
		uploadLimit = func(next http.Handler) http.Handler { return next }
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)

	// Health check (no auth required)
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Swagger UI (no auth required)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Protected routes - require a bearer token
	protected := router.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	api := protected.PathPrefix("/api").Subrouter()

	// Program CSV uploads (coaches)
	api.Handle("/programs/{activityId}/csv", uploadLimit(http.HandlerFunc(h.UploadProgramCSV))).Methods("POST")
	api.HandleFunc("/programs/csv/{sessionId}", h.GetUploadSession).Methods("GET")
	api.HandleFunc("/programs/csv/{sessionId}/commit", h.CommitUploadSession).Methods("POST")
	api.HandleFunc("/programs/csv/{sessionId}", h.DeleteUploadSession).Methods("DELETE")

	// Meet notifications
	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/calendar.ics", h.ExportCalendar).Methods("GET")
	api.HandleFunc("/notifications/{eventId}/rsvp", h.UpdateRSVP).Methods("POST")
	api.HandleFunc("/notifications/{eventId}/reschedule", h.RespondToReschedule).Methods("POST")

	// Product creation wizard
	api.HandleFunc("/wizard/steps", h.GetWizardSteps).Methods("GET")
	api.HandleFunc("/wizard/navigate", h.NavigateWizard).Methods("POST")
}
