// Package auth verifies the HS256 access tokens issued by the marketplace and
// turns them into notification actors.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/middleware"
	"coach-hub/internal/notifications"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "coach-hub"
	defaultTTL = 24 * time.Hour
)

type contextKey struct{}

// Claims carried by an access token. The subject is the user id.
type Claims struct {
	Role    string `json:"role"`
	CoachID string `json:"coach_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the feed owner they describe.
func (c *Claims) Actor() notifications.Actor {
	return notifications.Actor{
		Role:    notifications.Role(c.Role),
		UserID:  c.Subject,
		CoachID: c.CoachID,
	}
}

type Auth struct {
	secret []byte
	ttl    time.Duration
	logger logging.Logger
}

// New creates the verifier. The secret must be at least 32 bytes.
func New(secret string, logger logging.Logger) (*Auth, error) {
	if len(secret) < 32 {
		return nil, errors.ConfigError("JWT secret must be at least 32 characters long")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Auth{secret: []byte(secret), ttl: defaultTTL, logger: logger}, nil
}

// GenerateJWT signs a token for actor valid for ttl (24h when zero).
func (a *Auth) GenerateJWT(actor notifications.Actor, ttl time.Duration) (string, error) {
	if !actor.Complete() {
		return "", errors.ValidationError("actor needs a role, a user id and, for coaches, a coach id")
	}
	if ttl <= 0 {
		ttl = a.ttl
	}
	now := time.Now()
	claims := &Claims{
		Role:    string(actor.Role),
		CoachID: actor.CoachID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateJWT parses and verifies a token.
func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errors.AuthError("invalid or expired token")
	}
	if !claims.Actor().Complete() {
		return nil, errors.AuthError("token does not identify a client or coach")
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor in the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == header {
			unauthorized(w, errors.AuthError("authentication required"))
			return
		}

		claims, err := a.ValidateJWT(token)
		if err != nil {
			a.logger.Debug("Rejected access token",
				logging.Err(err),
				logging.String("path", r.URL.Path),
			)
			unauthorized(w, err)
			return
		}

		actor := claims.Actor()
		ctx := WithActor(r.Context(), actor)
		ctx = logging.ContextWithActor(ctx, actor.UserID, string(actor.Role))
		middleware.SetActor(ctx, actor.UserID, string(actor.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="coach-hub"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": errors.UserMessage(err)})
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor notifications.Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (notifications.Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(notifications.Actor)
	return actor, ok
}
