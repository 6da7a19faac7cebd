package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"ticket-chat/errors"
)

var (
	errMissingAPIKey = errors.ErrMissingAPIKey
	errMissingToken  = fmt.Errorf("%w: authorization token is missing", errors.ErrInvalidToken)
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

const (
	apiKeyHeader = "apikey"
	bearerPrefix = "Bearer "
)

// Rejection is written when a request fails the checks of the interceptor.
type Rejection func(w http.ResponseWriter, status int, err error)

// APIKeyInterceptor rejects requests not carrying the anon key,
// either in the apikey header or the apikey query parameter (websocket).
func APIKeyInterceptor(anonKey string, reject Rejection) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				key = r.URL.Query().Get(apiKeyHeader)
			}
			if key != anonKey {
				reject(w, http.StatusUnauthorized, errMissingAPIKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthInterceptor validates the bearer token and injects the user identity
// into the request context for downstream handlers.
func AuthInterceptor(issuer *TokenIssuer, reject Rejection) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := BearerToken(r)
			if tokenStr == "" {
				reject(w, http.StatusUnauthorized, errMissingToken)
				return
			}
			claims, err := issuer.ValidateToken(tokenStr)
			if err != nil {
				reject(w, http.StatusUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Subject, claims.Email)))
		})
	}
}

// BearerToken reads the access token of the Authorization header,
// falling back on the access_token query parameter.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}
	return r.URL.Query().Get("access_token")
}

func WithIdentity(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, EmailKey, email)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
