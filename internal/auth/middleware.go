package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow the
// device ID stored in a request context.
type contextKey string

const deviceIDKey contextKey = "deviceID"

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("auth: missing bearer token")

// Authenticator resolves a bearer token to the ID of a device that is still
// paired. service.PairingService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireDevice is middleware that rejects requests without a valid device
// token with 401 Unauthorized. The client treats any non-2xx from /status as
// "permission denied" and stops talking to the host.
func RequireDevice(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err == nil {
				var deviceID string
				if deviceID, err = authn.Authenticate(r.Context(), token); err == nil {
					ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"this device is not paired with the host"}` + "\n"))
		})
	}
}

// DeviceIDFromContext returns the authenticated device, if any.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey).(string)
	return id, ok && id != ""
}

// BearerToken extracts the token from `Authorization: Bearer <token>`.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}
