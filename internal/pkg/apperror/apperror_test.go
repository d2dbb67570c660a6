package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindMalformedInput, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
		{Kind(99), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.HTTPStatus())
		})
	}
}

func TestError_UnwrapAndKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("lookup: %w", Internal("could not load user", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("Forbidden", "no")))
}

func TestError_WithDetailsDoesNotMutate(t *testing.T) {
	base := Unauthenticated("Invalid token", "The token is not valid")
	detailed := base.WithDetails(map[string]string{"reason": "expired"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"reason": "expired"}, detailed.Details)
	assert.Equal(t, base.Message, detailed.Message)
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "conflict: email taken", Conflict("Duplicate", "email taken").Error())
	assert.Equal(t, "internal: boom: cause", Internal("boom", errors.New("cause")).Error())
}
