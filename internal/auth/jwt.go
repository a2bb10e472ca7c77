package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JWTVerifier validates HS256 tokens signed with a shared secret. It stands in for the hosted
// provider in local and self-hosted deployments.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a JWTVerifier for the given secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning its claims if valid.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Subject: stringClaim(mapClaims, "sub", "uid", "user_id"),
		Email:   stringClaim(mapClaims, "email"),
		Admin:   isAdmin(mapClaims),
		Raw:     mapClaims,
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return claims, nil
}

// Issue signs a token for subject. It is used by the admin CLI and by tests.
func (v *JWTVerifier) Issue(subject, email string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"admin": admin,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}
