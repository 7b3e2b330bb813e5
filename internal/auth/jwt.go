// Package auth issues and checks the bearer tokens paired devices present.
//
// PAIRING FLOW OVERVIEW:
//  1. The host is started with PAIRING_CODE and JWT_SECRET
//  2. The user runs `snippets pair <code>` on the terminal
//  3. The host verifies the code, records a device row, and returns a JWT
//     whose subject is the device ID
//  4. Every later request carries `Authorization: Bearer <jwt>`; the
//     middleware validates the signature and checks the device still exists
//
// Revoking a device deletes its row, so its token stops working immediately
// even though the JWT itself has not expired. The client sees 401 and shows
// its blocked screen.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"deviceID","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "snippet-desk"

// DeviceTokenLifetime is how long a pairing token stays valid. Devices are
// revoked explicitly, so tokens are long-lived.
const DeviceTokenLifetime = 365 * 24 * time.Hour

// TokenService handles JWT creation and validation with one HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. "sub" holds the device ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a device token valid for DeviceTokenLifetime.
func (s *TokenService) Generate(deviceID string) (string, error) {
	return s.GenerateWithDuration(deviceID, DeviceTokenLifetime)
}

// GenerateWithDuration signs a token with a custom expiry. Tests use it to
// mint expired tokens.
func (s *TokenService) GenerateWithDuration(deviceID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the device ID.
//
// The library checks the signature, the expiry, the issuer and the
// algorithm. Pinning HS256 with jwt.WithValidMethods rules out the "none"
// algorithm.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
