package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAuthenticator map[string]string

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("unknown token")
}

func TestRequireDevice(t *testing.T) {
	authn := stubAuthenticator{"good": "device-1"}

	var seen string
	h := RequireDevice(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = DeviceIDFromContext(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		status int
		device string
	}{
		{"valid token", "Bearer good", http.StatusOK, "device-1"},
		{"lowercase scheme", "bearer good", http.StatusOK, "device-1"},
		{"unknown token", "Bearer revoked", http.StatusUnauthorized, ""},
		{"no header", "", http.StatusUnauthorized, ""},
		{"basic auth", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.device, seen)
		})
	}
}

func TestDeviceIDFromContext_Empty(t *testing.T) {
	_, ok := DeviceIDFromContext(context.Background())
	assert.False(t, ok)
}
