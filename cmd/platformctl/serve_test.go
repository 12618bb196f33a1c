package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcplatform/platform/pkg/metrics"
)

func TestServeMuxEndpoints(t *testing.T) {
	metrics.SetVersion("test")
	metrics.RegisterComponent("provider:mock", true, "registered")
	defer metrics.DeregisterComponent("provider:mock")

	mux := newServeMux()

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServeMuxReadinessReflectsComponents(t *testing.T) {
	metrics.RegisterComponent("provider:aws", false, "credentials missing")
	defer metrics.DeregisterComponent("provider:aws")

	rec := httptest.NewRecorder()
	newServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
