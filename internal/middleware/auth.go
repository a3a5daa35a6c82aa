package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/access"
	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// identityKey is the context key for the verified caller.
const identityKey contextKey = "identity"

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	VerifyIdentity(token string) (*access.Identity, error)
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *access.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the verified caller, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *access.Identity {
	id, _ := ctx.Value(identityKey).(*access.Identity)
	return id
}

// Username returns the caller's username, or "" when anonymous.
func Username(ctx context.Context) string {
	if id := IdentityFrom(ctx); id != nil {
		return id.Username
	}
	return ""
}

// Authenticate verifies a Bearer token when one is present and stores the
// identity in the request context. Requests without a valid token continue
// anonymously; Authorize decides whether that is acceptable.
func Authenticate(verifier TokenVerifier, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			id, err := verifier.VerifyIdentity(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Authorize resolves each request's route pattern on routes and checks the
// caller against the table entry for it. Unmatched paths pass through to the
// router's 404 handling.
func Authorize(routes chi.Routes, table *access.Table, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := chi.NewRouteContext()
			if !routes.Match(rctx, r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			pattern := rctx.RoutePattern()
			req, listed := table.Lookup(r.Method, pattern)
			if !listed {
				log.Warn().Str("route", access.Key(r.Method, pattern)).Msg("route missing from access table, requiring default roles")
			}

			if err := access.Authorize(IdentityFrom(r.Context()), req); err != nil {
				switch apperr.KindOf(err) {
				case apperr.KindUnauthenticated:
					response.Unauthorized(w, apperr.Message(err, "authentication required"))
				default:
					response.Forbidden(w, apperr.Message(err, "forbidden"))
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
