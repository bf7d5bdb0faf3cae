package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fentz26/cleanops/internal/controlplane"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDaemon(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	prev := apiAddr
	apiAddr = srv.URL
	t.Cleanup(func() { apiAddr = prev })
}

func TestAPIGet(t *testing.T) {
	withDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/departments", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Department{{ID: "d1", Name: "Lobby"}})
	})

	var depts []models.Department
	require.NoError(t, apiGet("/departments", &depts))
	require.Len(t, depts, 1)
	assert.Equal(t, "Lobby", depts[0].Name)
}

func TestAPIPost_ErrorBody(t *testing.T) {
	withDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(controlplane.ErrorResponse{Error: "department changed concurrently", Kind: "conflict"})
	})

	err := apiPost("/departments/d1/assign", map[string]string{"employee_id": "e1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409 conflict")
	assert.Contains(t, err.Error(), "department changed concurrently")
}

func TestAPIGet_PlainErrorBody(t *testing.T) {
	withDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	err := apiGet("/stats", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "boom")
}

func TestCheckHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	withDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		resp := controlplane.HealthResponse{OK: healthy.Load(), DB: "ok", Version: "dev"}
		status := http.StatusOK
		if !healthy.Load() {
			resp.DB = "database is closed"
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	})

	health, err := CheckHealth()
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.True(t, isDaemonRunning())

	healthy.Store(false)
	health, err = CheckHealth()
	require.Error(t, err)
	require.NotNil(t, health)
	assert.Equal(t, "database is closed", health.DB)
	assert.False(t, isDaemonRunning())
}

func TestTaskShow_EscapesID(t *testing.T) {
	withDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/a%2Fb%3Fx", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		json.NewEncoder(w).Encode(models.CleaningTask{ID: "a/b?x", Status: models.TaskStatusPending})
	})

	require.NoError(t, runTaskShow(taskShowCmd, []string{"a/b?x"}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "12345678", truncateID("1234567890abcdef"))
	assert.Equal(t, "-", formatTime(nil))
}
