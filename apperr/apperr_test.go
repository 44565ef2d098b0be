package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		code   string
	}{
		{"validation", Validation(CodeNameRequired), http.StatusBadRequest, CodeNameRequired},
		{"not found", NotFound(CodeProjectNotFound), http.StatusNotFound, CodeProjectNotFound},
		{"unauthorized", Unauthorized(), http.StatusForbidden, CodeUnauthorized},
		{"unauthenticated", Unauthenticated(), http.StatusUnauthorized, CodeAuthenticationRequired},
		{"conflict", Conflict(CodeAlreadyMember), http.StatusConflict, CodeAlreadyMember},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError, CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestFromUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("update project: %w", NotFound(CodeProjectNotFound))

	got := From(wrapped)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindValidation))
}

func TestFromWrapsPlainErrors(t *testing.T) {
	cause := errors.New("connection reset")

	got := From(cause)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, CodeServerError, got.Code)
	require.ErrorIs(t, got, cause)
	assert.Contains(t, got.Error(), "connection reset")
}
