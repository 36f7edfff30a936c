package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/logging"
	"taskmanager/backend/models"
	"taskmanager/backend/response"
)

type contextKey struct{}

// Authenticator resolves a bearer token to the stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, caller)
}

func CallerFrom(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(contextKey{}).(models.Caller)
	return caller, ok
}

// Protect requires a valid bearer token and attaches the caller, with the
// role read from storage, to the request context.
func Protect(auth Authenticator, resp *response.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(tokenStr) == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: No bearer token for %s %s", r.Method, r.URL.Path)
				resp.Error(w, r, apperrors.NewAuthentication("Unauthorized, no Token"))
				return
			}

			user, err := auth.Authenticate(r.Context(), strings.TrimSpace(tokenStr))
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Rejected token for %s %s: %v", r.Method, r.URL.Path, err)
				resp.Error(w, r, err)
				return
			}

			logging.Logger.Debugf("Event ID: JWT_AUTH_SUCCESS, Description: %s authenticated for %s %s", user.ID.Hex(), r.Method, r.URL.Path)
			ctx := WithCaller(r.Context(), models.Caller{ID: user.ID, Role: user.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after Protect.
func AdminOnly(resp *response.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFrom(r.Context())
			if !ok || !caller.IsAdmin() {
				resp.Error(w, r, apperrors.NewAuthorization("Access denied, admin only"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflight requests and tags responses for the configured
// client origin.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
