package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pkgz/routegroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfohub/med-portal/internal/config"
)

func TestServer_healthCheck(t *testing.T) {
	srv, err := NewServer(&config.Config{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestServer_landingPage(t *testing.T) {
	srv, err := NewServer(&config.Config{}, func() (ApiVersion, GroupSetupFn) {
		return "v1", func(_ *routegroup.Bundle) {}
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "v1")
}
