package auth

import (
	"context"
	"fmt"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
)

// IDTokenVerifier is the part of the Firebase auth client the gateway uses.
type IDTokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens, including revocation.
type FirebaseVerifier struct {
	client    IDTokenVerifier
	projectID string
}

// NewFirebaseVerifier creates a FirebaseVerifier. When projectID is set the token audience must match it.
func NewFirebaseVerifier(client IDTokenVerifier, projectID string) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, projectID: projectID}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Claims, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if v.projectID != "" && token.Audience != v.projectID {
		return nil, fmt.Errorf("%w: audience mismatch %q", ErrInvalidToken, token.Audience)
	}

	raw := token.Claims
	if raw == nil {
		raw = map[string]any{}
	}
	return &Claims{
		Subject:   token.UID,
		Email:     stringClaim(raw, "email"),
		Admin:     isAdmin(raw),
		ExpiresAt: time.Unix(token.Expires, 0),
		Raw:       raw,
	}, nil
}
