package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)

	// The catalog loads on first search.
	assert.Equal(t, "degraded", health.Components["catalog"].Status)
	assert.Equal(t, "degraded", health.Status)

	require.Equal(t, http.StatusOK, ts.api.Get("/api/v1/search?q=portal").Code)

	health = decode[HealthResponse](t, ts.api.Get("/health").Body.Bytes()).Data
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "4 apps from upstream", health.Components["catalog"].Message)
}

func TestHealthCheck_NoServices(t *testing.T) {
	s := &Server{services: &Services{}}

	out, err := s.handleHealthCheck(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, "degraded", out.Body.Status)
	assert.Len(t, out.Body.Components, 3)
}
