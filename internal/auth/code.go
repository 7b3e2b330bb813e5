package auth

// PAIRING CODE HASHING:
// The host never keeps PAIRING_CODE in memory as plain text after startup. It
// hashes the code once with bcrypt and verifies each /api/pair attempt against
// the hash. bcrypt is deliberately slow, which also rate-limits guessing.

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor (~250ms per verification).
const defaultCost = 12

// ErrInvalidCode is returned by Verify when the code does not match.
var ErrInvalidCode = errors.New("auth: invalid pairing code")

// CodeHasher provides bcrypt hashing and verification of pairing codes.
// The cost is a field so tests can use the minimum.
type CodeHasher struct {
	cost int
}

// NewCodeHasher creates a CodeHasher with the default cost.
func NewCodeHasher() *CodeHasher {
	return &CodeHasher{cost: defaultCost}
}

// NewCodeHasherForTest creates a CodeHasher with the given cost, normally
// bcrypt.MinCost. Do NOT use in production.
func NewCodeHasherForTest(cost int) *CodeHasher {
	return &CodeHasher{cost: cost}
}

// Hash hashes a pairing code. bcrypt truncates input at 72 bytes, so longer
// codes are rejected rather than silently shortened.
func (h *CodeHasher) Hash(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("auth: pairing code is empty")
	}
	if len(code) > 72 {
		return "", fmt.Errorf("auth: pairing code must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing pairing code: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a submitted code against a stored hash in constant time.
func (h *CodeHasher) Verify(hash, code string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCode
		}
		return fmt.Errorf("auth: comparing pairing code hash: %w", err)
	}
	return nil
}
