package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexis077/bookshelf/internal/auth"
	"github.com/alexis077/bookshelf/internal/telemetry/tracing"
	"github.com/alexis077/bookshelf/internal/users"
	"github.com/alexis077/bookshelf/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type contextKey string

const authorizedUserKey contextKey = "authorized-user"

// AuthorizedUserFromContext returns the claims attached by
// Authenticate, or nil when the request did not pass the guard.
func AuthorizedUserFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(authorizedUserKey).(*auth.Claims)
	return claims
}

type AuthMiddlewareHandler struct {
	verifier auth.TokenVerifier
}

func NewAuthMiddlewareHandler(verifier auth.TokenVerifier) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		verifier: verifier,
	}
}

// Authenticate requires a valid bearer token and attaches the decoded
// claims to the request context.
func (h *AuthMiddlewareHandler) Authenticate() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "missing-auth-header")
				pkg.WriteAPIError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" || token == authHeader {
				log.Tracef("[malformed header] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "malformed-auth-header")
				pkg.WriteAPIError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			claims, err := h.verifier.Verify(token)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "invalid-token")
				pkg.WriteAPIError(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(ctx, authorizedUserKey, claims),
			))
		})
	}
}

// RequireAdmin gates an already-authenticated route to admin accounts.
// It must be layered after Authenticate.
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := AuthorizedUserFromContext(r.Context())
			if claims == nil || claims.Role != users.RoleAdmin {
				log.Tracef("[forbidden] [role gate] => %s", r.URL.Path)
				pkg.WriteAPIError(w, "access denied, admin role required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
