package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", BadRequest("bad %s", "input"), http.StatusBadRequest},
		{"wrapped forbidden", fmt.Errorf("ctx: %w", Forbidden("nope")), http.StatusForbidden},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"not found", NotFound("order not found"), http.StatusNotFound},
		{"unprocessable", Unprocessable("illegal"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestAsConvertsUnknownErrors(t *testing.T) {
	cause := errors.New("db down")
	ae := As(cause)
	require.Equal(t, http.StatusInternalServerError, ae.Status)
	require.Equal(t, "internal server error", ae.Message)
	require.ErrorIs(t, ae, cause)
}

func TestWrapKeepsMessage(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Conflict("Email already in use").Wrap(cause)
	assert.Equal(t, "Email already in use: duplicate key", err.Error())
	assert.ErrorIs(t, err, cause)
}
