package httpstatus

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       interface{}
		wantSucc   bool
	}{
		{name: "ok with data", statusCode: http.StatusOK, data: map[string]string{"message": "ok"}, wantSucc: true},
		{name: "created", statusCode: http.StatusCreated, data: map[string]int{"id": 1}, wantSucc: true},
		{name: "client error", statusCode: http.StatusBadRequest, data: nil, wantSucc: false},
		{name: "server error", statusCode: http.StatusInternalServerError, data: nil, wantSucc: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rw := NewResponseWriter(w, slog.Default())
			rw.WriteJSON(tt.statusCode, tt.data)

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantSucc, response.Success)
		})
	}
}

func TestResponseWriter_WriteError(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w, slog.Default())
	rw.WriteError(http.StatusServiceUnavailable, "BROKER_DOWN", "broker unreachable")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, "BROKER_DOWN", response.Error.Code)
	assert.Equal(t, "broker unreachable", response.Error.Message)
}
