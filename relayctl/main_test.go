package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &client{
		base: srv.URL,
		key:  "test-key",
		http: &http.Client{Timeout: time.Second},
	}
}

func TestRunEmptyCommand(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty command")
	}))

	assert.Error(t, c.run(""))
	assert.Error(t, c.run("   "))
}

func TestRunSingleRelay(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/relay/set", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"states": "100000000"})
	}))

	require.NoError(t, c.run("r1 on"))
	assert.Equal(t, "test-key", got["key"])
	assert.Equal(t, float64(1), got["relay"])
	assert.Equal(t, "ON", got["state"])
}

func TestRunUnknownCommand(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	assert.Error(t, c.run("BOGUS"))
}
