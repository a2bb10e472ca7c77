package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/auth"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_jwt_secret"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_Verify(t *testing.T) {
	verifier := auth.NewJWTVerifier(testJWTSecret)
	ctx := context.Background()

	t.Run("issued admin token", func(t *testing.T) {
		token, err := verifier.Issue("user-123", "owner@example.com", true, time.Hour)
		require.NoError(t, err)

		claims, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.Subject)
		assert.Equal(t, "owner@example.com", claims.Email)
		assert.True(t, claims.Admin)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 2*time.Second)
	})

	t.Run("role claim grants admin", func(t *testing.T) {
		token := sign(t, testJWTSecret, jwt.MapClaims{
			"user_id": "user-9",
			"role":    "superadmin",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		claims, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-9", claims.Subject)
		assert.True(t, claims.Admin)
	})

	t.Run("plain user is not admin", func(t *testing.T) {
		token, err := verifier.Issue("user-1", "", false, time.Hour)
		require.NoError(t, err)
		claims, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.False(t, claims.Admin)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, "another_secret", jwt.MapClaims{"sub": "user-123"})
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "invalid.token.string")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token := sign(t, testJWTSecret, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		token := sign(t, testJWTSecret, jwt.MapClaims{"admin": true})
		_, err := verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestStaticVerifier_Verify(t *testing.T) {
	hash, err := auth.HashToken("dev-admin-token")
	require.NoError(t, err)
	verifier := auth.NewStaticVerifier(hash)

	claims, err := verifier.Verify(context.Background(), "dev-admin-token")
	require.NoError(t, err)
	assert.Equal(t, auth.DevAdminSubject, claims.Subject)
	assert.True(t, claims.Admin)

	_, err = verifier.Verify(context.Background(), "guess")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

type mockIDTokenVerifier struct {
	mock.Mock
}

func (m *mockIDTokenVerifier) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fbauth.Token), args.Error(1)
}

func TestFirebaseVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	client := new(mockIDTokenVerifier)
	verifier := auth.NewFirebaseVerifier(client, "shop-project")

	client.On("VerifyIDTokenAndCheckRevoked", ctx, "admin-token").Return(&fbauth.Token{
		UID:      "uid-1",
		Audience: "shop-project",
		Expires:  time.Now().Add(time.Hour).Unix(),
		Claims:   map[string]interface{}{"email": "owner@example.com", "admin": true},
	}, nil).Once()
	client.On("VerifyIDTokenAndCheckRevoked", ctx, "customer-token").Return(&fbauth.Token{
		UID:      "uid-2",
		Audience: "shop-project",
		Claims:   map[string]interface{}{"email": "buyer@example.com"},
	}, nil).Once()
	client.On("VerifyIDTokenAndCheckRevoked", ctx, "other-project").Return(&fbauth.Token{
		UID:      "uid-3",
		Audience: "someone-else",
	}, nil).Once()
	client.On("VerifyIDTokenAndCheckRevoked", ctx, "revoked").Return(nil, errors.New("ID token has been revoked")).Once()

	claims, err := verifier.Verify(ctx, "admin-token")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.True(t, claims.Admin)

	claims, err = verifier.Verify(ctx, "customer-token")
	require.NoError(t, err)
	assert.False(t, claims.Admin)

	_, err = verifier.Verify(ctx, "other-project")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = verifier.Verify(ctx, "revoked")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	client.AssertExpectations(t)
}

func TestChain_Verify(t *testing.T) {
	reject := auth.VerifierFunc(func(context.Context, string) (*auth.Claims, error) {
		return nil, auth.ErrInvalidToken
	})
	accept := auth.VerifierFunc(func(_ context.Context, token string) (*auth.Claims, error) {
		if token != "good" {
			return nil, auth.ErrInvalidToken
		}
		return &auth.Claims{Subject: "s"}, nil
	})

	claims, err := auth.Chain{reject, accept}.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "s", claims.Subject)

	_, err = auth.Chain{reject, accept}.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.Chain{}.Verify(context.Background(), "any")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
