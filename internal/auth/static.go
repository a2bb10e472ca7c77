package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DevAdminSubject is the subject reported for the development token.
const DevAdminSubject = "admin-user"

// StaticVerifier accepts a single development token. Only its bcrypt hash is configured, so the
// token itself never sits in the environment of a deployed process.
type StaticVerifier struct {
	hash []byte
}

// NewStaticVerifier creates a StaticVerifier from a bcrypt hash.
func NewStaticVerifier(hash string) *StaticVerifier {
	return &StaticVerifier{hash: []byte(hash)}
}

// HashToken produces the bcrypt hash to configure for a development token.
func HashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return nil, fmt.Errorf("%w: not the development token", ErrInvalidToken)
	}
	return &Claims{
		Subject: DevAdminSubject,
		Email:   "admin@localhost",
		Admin:   true,
		Raw:     map[string]any{"admin": true},
	}, nil
}
