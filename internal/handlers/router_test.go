package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_Health(t *testing.T) {
	env := setupTestHandler(t)

	w := env.get("/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_NoRoute(t *testing.T) {
	env := setupTestHandler(t)

	w := env.get("/a/b/c", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Link not found")
}

func TestSetupRouter_WithoutLimiter(t *testing.T) {
	env := setupTestHandler(t)
	r := env.h.SetupRouter(nil)
	assert.NotNil(t, r)
}
