package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authcore "github.com/authcore-io/authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity Guard stored for this request.
func IdentityFromContext(ctx context.Context) (authcore.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(authcore.Identity)
	return id, ok
}

// Guard rejects requests whose bearer token does not validate. The client
// IP is attached to the request context so downstream engine calls carry it
// into audit events.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authcore.WithClientIP(r.Context(), clientIP(r))
			id, err := engine.Validate(ctx, raw)
			if err != nil {
				status, msg := CollapseError(err)
				http.Error(w, msg, status)
				return
			}

			ctx = context.WithValue(ctx, identityContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CollapseError maps an engine error to the status code and body a
// transport should return. Credential failures and token failures share
// deliberately vague messages.
func CollapseError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, authcore.ErrAuthenticationFailed),
		errors.Is(err, authcore.ErrInvalidCredentialFormat):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, authcore.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	case errors.Is(err, authcore.ErrEngineNotReady):
		return http.StatusInternalServerError, "internal error"
	default:
		return http.StatusUnauthorized, "invalid or expired session"
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	raw := value[len(bearer):]
	if raw == "" {
		return "", false
	}

	return raw, true
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
