// Package ratelimit throttles expensive endpoints per authenticated user with
// a sliding window shared through Redis.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"coach-hub/internal/auth"
	"coach-hub/internal/common/logging"
)

// Counter records a hit and reports whether it fits the window.
// *redis.Client implements it.
type Counter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

type Config struct {
	Limit   int           `json:"limit"`
	Window  time.Duration `json:"window"`
	Enabled bool          `json:"enabled"`
}

type RateLimit struct {
	Limit     int           `json:"limit"`
	Window    time.Duration `json:"window"`
	Remaining int           `json:"remaining"`
	ResetTime time.Time     `json:"reset_time"`
}

// Exceeded reports whether the request that produced r must be rejected.
func (r *RateLimit) Exceeded() bool {
	return r.Remaining < 0
}

type Limiter struct {
	counter Counter
	config  *Config
	logger  logging.Logger
}

func NewLimiter(counter Counter, config *Config, logger logging.Logger) *Limiter {
	if config == nil {
		config = &Config{
			Limit:   30,
			Window:  time.Minute,
			Enabled: true,
		}
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Limiter{
		counter: counter,
		config:  config,
		logger:  logger.WithFields(logging.String("component", "ratelimit")),
	}
}

// Check records a hit for key. Remaining goes negative once the limit is
// exceeded.
func (l *Limiter) Check(ctx context.Context, key string) (*RateLimit, error) {
	limit, window := l.config.Limit, l.config.Window
	if !l.config.Enabled || l.counter == nil {
		return &RateLimit{
			Limit:     limit,
			Window:    window,
			Remaining: limit,
			ResetTime: time.Now().Add(window),
		}, nil
	}

	allowed, count, err := l.counter.CheckRateLimit(ctx, "rate_limit:"+key, limit, window)
	if err != nil {
		return nil, err
	}

	remaining := limit - count - 1
	if !allowed {
		remaining = -1
	}

	return &RateLimit{
		Limit:     limit,
		Window:    window,
		Remaining: remaining,
		ResetTime: time.Now().Add(window),
	}, nil
}

// HTTPMiddleware rejects requests over the limit with 429. Requests without
// a key pass through, and a failing counter lets the request through.
func (l *Limiter) HTTPMiddleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			rateLimit, err := l.Check(r.Context(), key)
			if err != nil {
				l.logger.Warn("Rate limit check failed, allowing request",
					logging.Err(err),
					logging.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := rateLimit.Remaining
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rateLimit.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", rateLimit.ResetTime.Unix()))

			if rateLimit.Exceeded() {
				l.logger.Info("Rate limit exceeded", logging.String("key", key))
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateLimit.Window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "demasiadas solicitudes, intenta de nuevo en unos minutos",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActorKey keys the limit by scope and the authenticated user. It must run
// behind auth.RequireAuth.
func ActorKey(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok || actor.UserID == "" {
			return ""
		}
		return fmt.Sprintf("%s:%s:%s", scope, actor.Role, actor.UserID)
	}
}
