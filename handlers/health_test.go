package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())
}

func TestReady(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, true, body["deps"].(map[string]any)["store"])
}

func TestReady_FailingDependency(t *testing.T) {
	env := newEnv(t, func(d *Deps) {
		d.ReadyChecks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	})
	w := env.do(http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_ready", body["status"])
	deps := body["deps"].(map[string]any)
	assert.Equal(t, true, deps["store"])
	assert.Equal(t, false, deps["redis"])
}
