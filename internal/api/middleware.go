package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"tripplanner/internal/identity"
	"tripplanner/internal/models"
)

type contextKey string

const (
	identityContextKey  contextKey = "client_identity"
	requestIDContextKey contextKey = "request_id"
)

// IdentityFrom extracts the client identity computed by the identity
// middleware, or "" if the middleware did not run.
func IdentityFrom(ctx context.Context) string {
	if id, ok := ctx.Value(identityContextKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDFrom extracts the request ID assigned by the identity middleware.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// identityMiddleware computes the client identity once per request from the
// fingerprint headers and assigns a request ID. Missing headers are fine:
// such clients share an anonymous-ish identity, which is the documented
// weakness of fingerprint throttling.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.Identify(identity.Signals{
			Agent:    r.Header.Get("User-Agent"),
			Locale:   r.Header.Get("Accept-Language"),
			Screen:   r.Header.Get("X-Screen-Size"),
			Timezone: r.Header.Get("X-Timezone"),
		})

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), identityContextKey, id)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"identity", IdentityFrom(r.Context()),
			"request_id", RequestIDFrom(r.Context()))
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware handles panics.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				errorResp := models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError)
				json.NewEncoder(w).Encode(errorResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
