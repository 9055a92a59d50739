package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"coach-hub/internal/common/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type metaKey struct{}

// requestMeta collects values set by inner handlers for the access log.
type requestMeta struct {
	mu     sync.Mutex
	userID string
	role   string
}

// SetActor records the authenticated user for the access log line of the
// current request. It is a no-op outside LoggingMiddleware.
func SetActor(ctx context.Context, userID, role string) {
	meta, ok := ctx.Value(metaKey{}).(*requestMeta)
	if !ok {
		return
	}
	meta.mu.Lock()
	meta.userID = userID
	meta.role = role
	meta.mu.Unlock()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// RequestID reuses the caller's X-Request-ID or generates one, echoes it on
// the response and stores it for context-aware loggers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.ContextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs all HTTP requests with method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		meta := &requestMeta{}
		ctx := context.WithValue(r.Context(), metaKey{}, meta)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		duration := time.Since(start)

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", wrapped.statusCode),
			{Key: "duration_ms", Value: duration.Milliseconds()},
			{Key: "bytes", Value: wrapped.written},
			logging.String("remote_addr", r.RemoteAddr),
		}

		if r.URL.RawQuery != "" {
			fields = append(fields, logging.String("query", r.URL.RawQuery))
		}

		if ua := r.Header.Get("User-Agent"); ua != "" {
			fields = append(fields, logging.String("user_agent", ua))
		}

		if id := w.Header().Get(RequestIDHeader); id != "" {
			fields = append(fields, logging.String("request_id", id))
		}

		meta.mu.Lock()
		if meta.userID != "" {
			fields = append(fields,
				logging.String("user_id", meta.userID),
				logging.String("role", meta.role),
			)
		}
		meta.mu.Unlock()

		if wrapped.statusCode >= 500 {
			logging.Error("HTTP request completed", nil, fields...)
		} else if wrapped.statusCode >= 400 {
			logging.Warn("HTTP request completed", fields...)
		} else {
			logging.Info("HTTP request completed", fields...)
		}
	})
}
