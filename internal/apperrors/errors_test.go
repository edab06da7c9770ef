package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindConflict, KindOf(New(KindConflict, "lost the race")))

	// Unclassified errors default to persistence, the retryable bucket.
	assert.Equal(t, KindPersistence, KindOf(errors.New("plain")))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("outer: %w", New(KindNotFound, "missing"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindConflict, "")))
	assert.True(t, Retryable(New(KindPersistence, "")))
	assert.False(t, Retryable(Validationf("no")))
	assert.False(t, Retryable(New(KindNotFound, "")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validationf("bad")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(New(KindConflict, "race")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(New(KindNotFound, "gone")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(New(KindPersistence, "down")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := Wrap(KindPersistence, "writing ledger", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "writing ledger")
	assert.Contains(t, err.Error(), "socket closed")
}
