// Package auth verifies bearer tokens against an external identity provider and reduces them
// to the Claims the gateway cares about.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned (wrapped) by every verifier when a token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the verified facts about a caller.
type Claims struct {
	Subject   string
	Email     string
	Admin     bool
	ExpiresAt time.Time
	Raw       map[string]any
}

// Verifier checks a bearer token. Implementations must honour ctx cancellation where the
// underlying provider allows it.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (*Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (*Claims, error) {
	return f(ctx, token)
}

// Chain tries each verifier in order and returns the first success.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (*Claims, error) {
	err := fmt.Errorf("%w: no verifier configured", ErrInvalidToken)
	for _, v := range c {
		claims, verr := v.Verify(ctx, token)
		if verr == nil {
			return claims, nil
		}
		err = verr
		if ctx.Err() != nil {
			break
		}
	}
	return nil, err
}

// isAdmin reads the admin flag from a claim set. Both the custom claim {admin: true} and a
// role of admin/superadmin grant it.
func isAdmin(raw map[string]any) bool {
	if admin, ok := raw["admin"].(bool); ok && admin {
		return true
	}
	switch raw["role"] {
	case "admin", "superadmin":
		return true
	}
	return false
}

func stringClaim(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
