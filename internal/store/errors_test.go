package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_WithMessageKeepsIdentity(t *testing.T) {
	assert.Equal(t, "summary not found", store.ErrSummaryNotFound.Error())
	assert.Equal(t, http.StatusNotFound, store.ErrSummaryNotFound.HTTPCode())
	assert.ErrorIs(t, store.ErrSummaryNotFound, store.ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("lookup 10: %w", store.ErrSummaryNotFound), store.ErrNotFound)
}

func TestError_SentinelsAreDistinct(t *testing.T) {
	assert.NotErrorIs(t, store.ErrVersionConflict, store.ErrAlreadyExists)
	assert.NotErrorIs(t, store.ErrAlreadyExists, store.ErrNotFound)
	assert.NotErrorIs(t, errors.New("resource not found"), store.ErrNotFound)
}

func TestError_HTTPCode(t *testing.T) {
	tests := []struct {
		err  *store.Error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrAlreadyExists, http.StatusConflict},
		{store.ErrVersionConflict, http.StatusConflict},
		{&store.Error{Message: "unclassified"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPCode())
		})
	}
}
