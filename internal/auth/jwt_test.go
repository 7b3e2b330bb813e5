package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

// newTestTokenService uses a fixed secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	assert.Error(t, err)

	_, err = NewTokenService("this-is-16-chars")
	assert.NoError(t, err)
}

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("device-1")
	require.NoError(t, err)

	// header.payload.signature
	assert.Equal(t, 2, strings.Count(token, "."))
}

func TestGenerate_IsLongLived(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("device-1")
	require.NoError(t, err)

	var c claims
	_, _, err = jwt.NewParser().ParseUnverified(token, &c)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DeviceTokenLifetime), c.ExpiresAt.Time, time.Minute)
	assert.Equal(t, issuer, c.Issuer)
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("device-abc")
	require.NoError(t, err)

	got, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "device-abc", got)
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)

	expired, err := ts.GenerateWithDuration("device-1", -time.Second)
	require.NoError(t, err)

	good, err := ts.Generate("device-1")
	require.NoError(t, err)

	other, err := NewTokenService("wrong-secret-32-chars-long!!!!!!")
	require.NoError(t, err)
	foreign, err := other.Generate("device-1")
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "device-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"expired":      expired,
		"tampered":     good[:len(good)-3] + "xxx",
		"wrong secret": foreign,
		"wrong issuer": wrongIssuer,
		"empty":        "",
		"garbage":      "not.a.jwt.token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Validate(token)
			assert.Error(t, err)
		})
	}
}
