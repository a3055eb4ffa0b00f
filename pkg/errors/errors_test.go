package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewExternalError("embedding request failed", errors.New("connection refused"))
	assert.Equal(t, "EXTERNAL: embedding request failed: connection refused", err.Error())

	err = NewValidationError("query is required")
	assert.Equal(t, "VALIDATION: query is required", err.Error())
}

func TestTypeOf_WrappedError(t *testing.T) {
	inner := NewNotFoundError("clinic not found")
	wrapped := fmt.Errorf("loading clinics: %w", inner)

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidationError("bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NewNotFoundError("missing")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(NewExternalError("llm", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
