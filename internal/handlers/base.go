// Package handlers implements the REST API on top of the upload sessions,
// the notification feeds and the product wizard.
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"coach-hub/internal/auth"
	"coach-hub/internal/calendar"
	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/common/validation"
	"coach-hub/internal/notifications"
	"coach-hub/internal/programcsv"
	"coach-hub/internal/upload"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 64 << 10

// HealthChecker is a dependency reported by the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the services the handlers need.
type Deps struct {
	Sessions       *programcsv.SessionStore
	Ingestor       *programcsv.Ingestor
	Executor       *upload.Executor
	Feeds          *notifications.FeedSet
	Exporter       *calendar.Exporter
	MaxUploadBytes int64
	Checks         map[string]HealthChecker
	Logger         logging.Logger
}

type Handlers struct {
	sessions       *programcsv.SessionStore
	ingestor       *programcsv.Ingestor
	executor       *upload.Executor
	feeds          *notifications.FeedSet
	exporter       *calendar.Exporter
	maxUploadBytes int64
	checks         map[string]HealthChecker
	logger         logging.Logger
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func New(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	exporter := deps.Exporter
	if exporter == nil {
		exporter = calendar.NewExporter()
	}
	return &Handlers{
		sessions:       deps.Sessions,
		ingestor:       deps.Ingestor,
		executor:       deps.Executor,
		feeds:          deps.Feeds,
		exporter:       exporter,
		maxUploadBytes: deps.MaxUploadBytes,
		checks:         deps.Checks,
		logger:         logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the status and user message of err. Server-side
// failures are logged with their cause.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).Error("Request failed", err,
			logging.String("path", r.URL.Path),
		)
	}
	writeJSON(w, status, ErrorResponse{Error: errors.UserMessage(err)})
}

// decodeJSON reads a JSON body into dst and validates it. An empty body is
// accepted when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(optional && stderrors.Is(err, io.EOF)) {
			return errors.ValidationError("invalid request body")
		}
	}
	return validation.ValidateStruct(dst)
}

// actorFrom returns the authenticated actor of the request.
func actorFrom(r *http.Request) (notifications.Actor, error) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok || !actor.Complete() {
		return notifications.Actor{}, errors.AuthError("authentication required")
	}
	return actor, nil
}

// coachFrom returns the authenticated actor when it is a coach.
func coachFrom(r *http.Request) (notifications.Actor, error) {
	actor, err := actorFrom(r)
	if err != nil {
		return actor, err
	}
	if actor.Role != notifications.RoleCoach {
		return notifications.Actor{}, errors.ForbiddenError("only coaches can upload programs")
	}
	return actor, nil
}
