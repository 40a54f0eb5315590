package httpstatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arikolev/elevator-fleet/internal/config"
	"github.com/arikolev/elevator-fleet/internal/health"
)

type fakeProvider struct {
	snapshot map[string]interface{}
}

func (f *fakeProvider) Snapshot() map[string]interface{} {
	return f.snapshot
}

func testConfig() *config.Config {
	return &config.Config{
		StatusPort:        0,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		HealthCacheTTL:    time.Millisecond,
		MetricsEnabled:    true,
		MetricsPath:       "/metrics",
		WebSocketEnabled:  true,
		WebSocketPath:     "/ws/status",
		WebSocketInterval: 10 * time.Millisecond,
	}
}

func TestServer_LivenessHandler(t *testing.T) {
	s := NewServer(testConfig(), "car", &fakeProvider{snapshot: map[string]interface{}{"floor": 3}}, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health/live", nil)
	s.livenessHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestServer_ReadinessHandler(t *testing.T) {
	t.Run("healthy when no dependencies fail", func(t *testing.T) {
		s := NewServer(testConfig(), "car", &fakeProvider{}, slog.Default())

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/health/ready", nil)
		s.readinessHandler(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unavailable when a dependency is unhealthy", func(t *testing.T) {
		broken := health.NewComponentHealthChecker("broker", func(ctx context.Context) (bool, string, map[string]interface{}) {
			return false, "disconnected", nil
		})
		s := NewServer(testConfig(), "car", &fakeProvider{}, slog.Default(), broken)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/health/ready", nil)
		s.readinessHandler(w, r)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestServer_DetailedHealthHandler(t *testing.T) {
	s := NewServer(testConfig(), "car", &fakeProvider{}, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)
	s.detailedHealthHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestServer_StatusHandler(t *testing.T) {
	snapshot := map[string]interface{}{"floor": float64(2), "direction": "up"}
	s := NewServer(testConfig(), "car", &fakeProvider{snapshot: snapshot}, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/status", nil)
	s.statusHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "up", data["direction"])
}

func TestServer_StatusWebSocketHandler(t *testing.T) {
	cfg := testConfig()
	cfg.WebSocketInterval = 5 * time.Millisecond
	s := NewServer(cfg, "car", &fakeProvider{snapshot: map[string]interface{}{"floor": float64(1)}}, slog.Default())

	server := httptest.NewServer(http.HandlerFunc(s.statusWebSocketHandler))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var payload map[string]interface{}
	require.NoError(t, conn.ReadJSON(&payload))
	assert.Equal(t, float64(1), payload["floor"])
}
