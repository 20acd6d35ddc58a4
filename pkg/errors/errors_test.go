package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedCodes(t *testing.T) {
	base := NotFound("Group", stderrors.New("missing doc"))
	wrapped := fmt.Errorf("join: %w", base)

	assert.True(t, Is(wrapped, "NOT_FOUND"))
	assert.False(t, Is(wrapped, "CONFLICT"))
	assert.False(t, Is(stderrors.New("plain"), "NOT_FOUND"))
}

func TestErrorMessages(t *testing.T) {
	err := NotFound("Group", nil)
	assert.Equal(t, "NOT_FOUND: Group not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.Status)

	inner := stderrors.New("boom")
	assert.ErrorIs(t, Internal("write failed", inner), inner)
}

func TestTooManyRequestsIncludesWait(t *testing.T) {
	err := TooManyRequests("Slow down", 2500*time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Contains(t, err.Message, "retry in 3s")
}

func TestAsFindsAppError(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", InvalidState("session is not active"))

	var appErr *AppError
	assert.True(t, As(wrapped, &appErr))
	assert.Equal(t, "INVALID_STATE", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}
