package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := FetchFailed(context.DeadlineExceeded, "get %s", "https://example.com")

	assert.True(t, Is(err, ErrFetchFailed))
	assert.False(t, Is(err, ErrNotFound))
	assert.True(t, Is(err, context.DeadlineExceeded), "cause should be reachable")

	wrapped := fmt.Errorf("search: %w", err)
	assert.True(t, Is(wrapped, ErrFetchFailed))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	err := Wrap(New("disk full"), CodePersistenceUnavailable, "save summary")
	assert.Equal(t, "save summary: disk full", err.Error())
}

func TestError_WithDetailsKeepsCause(t *testing.T) {
	cause := New("boom")
	err := Wrap(cause, CodeInternal, "op").WithDetails(map[string]string{"k": "v"})

	assert.Equal(t, map[string]string{"k": "v"}, err.Details)
	assert.ErrorIs(t, err, cause)
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeFetchFailed, http.StatusBadGateway},
		{CodeSummarizerFailed, http.StatusBadGateway},
		{CodePersistenceUnavailable, http.StatusServiceUnavailable},
		{CodeNoReviews, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}
