package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach-hub/internal/auth"
	"coach-hub/internal/notifications"
	"coach-hub/internal/redis"
)

type failingCounter struct{}

func (failingCounter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	return false, 0, errors.New("connection refused")
}

func newRedisLimiter(t *testing.T, limit int) *Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewLimiter(client, &Config{Limit: limit, Window: time.Minute, Enabled: true}, nil)
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest("POST", "/api/programs/act-1/csv", nil)
	if userID == "" {
		return req
	}
	actor := notifications.Actor{Role: notifications.RoleCoach, UserID: userID, CoachID: "coach-1"}
	return req.WithContext(auth.WithActor(req.Context(), actor))
}

func TestNewLimiter(t *testing.T) {
	t.Run("with nil config uses defaults", func(t *testing.T) {
		limiter := NewLimiter(nil, nil, nil)

		assert.NotNil(t, limiter.config)
		assert.Equal(t, 30, limiter.config.Limit)
		assert.Equal(t, time.Minute, limiter.config.Window)
		assert.True(t, limiter.config.Enabled)
	})
}

func TestLimiter_Check(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		limiter := NewLimiter(failingCounter{}, &Config{Limit: 10, Window: 30 * time.Second}, nil)

		result, err := limiter.Check(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, 10, result.Remaining)
		assert.False(t, result.Exceeded())
	})

	t.Run("counts down to the limit", func(t *testing.T) {
		limiter := newRedisLimiter(t, 2)
		ctx := context.Background()

		first, err := limiter.Check(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 1, first.Remaining)

		second, err := limiter.Check(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 0, second.Remaining)
		assert.False(t, second.Exceeded())

		third, err := limiter.Check(ctx, "k")
		require.NoError(t, err)
		assert.True(t, third.Exceeded())
	})

	t.Run("counter error", func(t *testing.T) {
		limiter := NewLimiter(failingCounter{}, nil, nil)
		_, err := limiter.Check(context.Background(), "k")
		assert.Error(t, err)
	})
}

func TestHTTPMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	t.Run("rejects over the limit", func(t *testing.T) {
		handler := newRedisLimiter(t, 1).HTTPMiddleware(ActorKey("csv_upload"))(ok)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestAs("coach-user"))
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, requestAs("coach-user"))
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "60", rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), "demasiadas solicitudes")

		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, requestAs("other-user"))
		assert.Equal(t, http.StatusCreated, rr.Code, "limits are per user")
	})

	t.Run("anonymous requests pass", func(t *testing.T) {
		handler := newRedisLimiter(t, 1).HTTPMiddleware(ActorKey("csv_upload"))(ok)
		for i := 0; i < 3; i++ {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, requestAs(""))
			assert.Equal(t, http.StatusCreated, rr.Code)
		}
	})

	t.Run("fails open", func(t *testing.T) {
		limiter := NewLimiter(failingCounter{}, &Config{Limit: 1, Window: time.Minute, Enabled: true}, nil)
		handler := limiter.HTTPMiddleware(ActorKey("csv_upload"))(ok)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestAs("coach-user"))
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	})
}

func TestActorKey(t *testing.T) {
	assert.Equal(t, "csv_upload:coach:u1", ActorKey("csv_upload")(requestAs("u1")))
	assert.Equal(t, "", ActorKey("csv_upload")(requestAs("")))
}
