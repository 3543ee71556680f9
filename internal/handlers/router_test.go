package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"shortlify/internal/config"

	"github.com/stretchr/testify/assert"
)

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestRouter_Health(t *testing.T) {
	env := setupTestHandler(t, config.Config{})

	w := env.do("GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_Metrics(t *testing.T) {
	env := setupTestHandler(t, config.Config{})
	env.do("GET", "/missing", nil, "")

	w := env.do("GET", "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shortlify_resolutions_total")
}

func TestRouter_RateLimitOnlyGuardsAPI(t *testing.T) {
	env := setupTestHandler(t, config.Config{})
	r := env.h.SetupRouter(denyAll{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/urls/x/analytics", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
