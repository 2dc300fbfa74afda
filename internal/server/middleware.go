package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/metrics"
	"github.com/nightcity/redsheet/internal/ratelimit"
	"github.com/nightcity/redsheet/internal/service"
)

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
)

// requireUser resolves the bearer token to a user id for downstream handlers.
func requireUser(accounts *service.Accounts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, apperr.CodeUnauthenticated, "missing bearer token")
				return
			}
			userID, err := accounts.Authenticate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.CodeUnauthenticated, "invalid or expired access token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFrom(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(ctxKeyUser).(string)
	return id, ok
}

// mustUser is for handlers mounted behind requireUser.
func mustUser(r *http.Request) string {
	id, _ := userFrom(r)
	return id
}

// rateLimit throttles by client IP and route. A limiter error lets the
// request through.
func rateLimit(l ratelimit.Limiter, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			key := clientIP(r.RemoteAddr) + "|" + route

			ok, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if m != nil {
					m.RateLimited.Inc()
				}
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
