package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewUnauthenticatedError("x"), http.StatusUnauthorized},
		{NewPermissionDeniedError("x"), http.StatusForbidden},
		{NewNotFoundError("Post", 1), http.StatusNotFound},
		{NewValidationError("x"), http.StatusBadRequest},
		{NewConstraintError("x", nil), http.StatusConflict},
		{NewTransientError(errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestErrorCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("load feed: %w", NewNotFoundError("Post", "abc"))
	assert.Equal(t, CodeNotFound, ErrorCode(err))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(nil, CodeNotFound))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransientError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
