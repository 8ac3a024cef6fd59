package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

type principalKey struct{}

// Authenticator resolves a bearer token to a principal. RequireAdmin fails
// with Forbidden for a valid non-admin token.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*entities.CurrentUser, error)
	RequireAdmin(ctx context.Context, token string) (*entities.CurrentUser, error)
}

// WithPrincipal stores the authenticated caller in ctx
func WithPrincipal(ctx context.Context, principal *entities.CurrentUser) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the authenticated caller, or nil
func PrincipalFromContext(ctx context.Context) *entities.CurrentUser {
	principal, _ := ctx.Value(principalKey{}).(*entities.CurrentUser)
	return principal
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return authorize(auth.CurrentUser)
}

// RequireAdmin rejects requests unless the caller is an admin
func RequireAdmin(auth Authenticator) func(http.Handler) http.Handler {
	return authorize(auth.RequireAdmin)
}

func authorize(resolve func(ctx context.Context, token string) (*entities.CurrentUser, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolve(r.Context(), BearerToken(r))
			if err != nil {
				writeError(w, err)
				return
			}
			observability.SetSpanAttributes(trace.SpanFromContext(r.Context()), attribute.Int("enduser.id", principal.ID))
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	body := map[string]string{"error": "internal server error", "code": apperrors.CodeInternal}
	if appErr, ok := apperrors.As(err); ok {
		body["error"] = appErr.Message
		body["code"] = appErr.Code
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
