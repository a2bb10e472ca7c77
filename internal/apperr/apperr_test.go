package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"auth", apperr.Auth("no token", nil), http.StatusUnauthorized},
		{"not found", apperr.NotFound("Not found", nil), http.StatusNotFound},
		{"method", apperr.MethodNotAllowed(), http.StatusMethodNotAllowed},
		{"unavailable", apperr.Unavailable("timeout", nil), http.StatusServiceUnavailable},
		{"internal", apperr.Internal(errors.New("disk on fire")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", apperr.Validation("bad")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperr.Status(tc.err))
		})
	}
}

func TestInternalExposesUnderlyingMessage(t *testing.T) {
	err := apperr.Internal(errors.New("connection refused"))
	assert.Equal(t, "connection refused", err.Error())
}

func TestAuthKeepsCause(t *testing.T) {
	sentinel := errors.New("missing token")
	err := apperr.Auth("Missing Authorization token", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
	assert.False(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Missing Authorization token", err.Error())
}
