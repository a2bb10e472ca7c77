package middleware

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// Auth failures reported by the Gate. The error text is what the client sees.
var (
	ErrMissingToken = errors.New("Missing Authorization token")
	ErrInvalidToken = errors.New("Invalid or expired token")
	ErrNotAdmin     = errors.New("Admin privileges required")
)

// MsgAuthTimeout is returned with 503 when the verifier does not answer in time.
const MsgAuthTimeout = "auth provider timeout"

// ClaimsKey is the fiber locals key holding the verified *auth.Claims.
const ClaimsKey = "claims"

// Gate authenticates bearer tokens for admin-only routes. It keeps no state between requests.
type Gate struct {
	verifier     auth.Verifier
	timeout      time.Duration
	requireAdmin bool
}

// NewGate creates a Gate. With requireAdmin unset any verified token is accepted, which is only
// meant for local setups.
func NewGate(verifier auth.Verifier, timeout time.Duration, requireAdmin bool) *Gate {
	return &Gate{
		verifier:     verifier,
		timeout:      timeout,
		requireAdmin: requireAdmin,
	}
}

// Authenticate checks an Authorization header value and returns the caller's claims.
func (g *Gate) Authenticate(ctx context.Context, header string) (*auth.Claims, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, apperr.Auth(ErrMissingToken.Error(), ErrMissingToken)
	}

	claims, err := g.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if g.requireAdmin && !claims.Admin {
		log.Printf("Rejected non-admin caller %s", claims.Subject)
		return nil, apperr.Auth(ErrNotAdmin.Error(), ErrNotAdmin)
	}
	return claims, nil
}

// verify runs the verifier bounded by the gate timeout, even when the verifier ignores ctx.
func (g *Gate) verify(ctx context.Context, token string) (*auth.Claims, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type result struct {
		claims *auth.Claims
		err    error
	}
	done := make(chan result, 1)
	go func() {
		claims, err := g.verifier.Verify(ctx, token)
		done <- result{claims, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil {
				return nil, apperr.Unavailable(MsgAuthTimeout, r.err)
			}
			log.Printf("Token verification failed: %v", r.err)
			return nil, apperr.Auth(ErrInvalidToken.Error(), errors.Join(ErrInvalidToken, r.err))
		}
		return r.claims, nil
	case <-ctx.Done():
		log.Printf("Token verification aborted: %v", ctx.Err())
		return nil, apperr.Unavailable(MsgAuthTimeout, ctx.Err())
	}
}

// Guard authenticates the request and stores the claims under ClaimsKey.
func (g *Gate) Guard(c *fiber.Ctx) error {
	claims, err := g.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(ClaimsKey, claims)
	return nil
}

// Claims returns the claims stored by Guard, or nil on public routes.
func Claims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(ClaimsKey).(*auth.Claims)
	return claims
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
