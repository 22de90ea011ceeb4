package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := InvalidInput("quantity must be positive")
	assert.Equal(t, "INVALID_INPUT: quantity must be positive", err.Error())

	wrapped := Internal(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, NotFound("order"), ErrNotFound)
	assert.ErrorIs(t, Unauthorized("no token"), ErrUnauthorized)
	assert.ErrorIs(t, SessionExpired(), ErrSessionExpired)
	assert.ErrorIs(t, Upstream("backend down"), ErrUpstream)
}

func TestValidation_CarriesFields(t *testing.T) {
	err := Validation(map[string][]string{
		"email":    {"must be a valid email address"},
		"password": {"too short", "too common"},
	})

	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Len(t, err.Fields["password"], 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NotFound("product"), http.StatusNotFound},
		{InvalidInput("bad"), http.StatusBadRequest},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{SessionExpired(), http.StatusUnauthorized},
		{Forbidden("admin only"), http.StatusForbidden},
		{Conflict("already exists"), http.StatusConflict},
		{Upstream("backend down"), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", ErrRateLimited), http.StatusTooManyRequests},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("fetch profile: %w", Unauthorized("token rejected"))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}
