package httpstatus

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arikolev/elevator-fleet/internal/health"
)

// StatusProvider is implemented by the scheduler, car controller, and
// floor agent so the status surface can expose their current state
// without either side knowing about the other's internals.
type StatusProvider interface {
	// Snapshot returns a JSON-marshalable view of the component's current
	// state (e.g. a car's floor/direction/door/queue, or a floor agent's
	// waiting count).
	Snapshot() map[string]interface{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, s.logger)
	result := s.liveness.Check(r.Context())
	rw.WriteJSON(http.StatusOK, result)
}

func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, s.logger)
	result := s.readiness.Check(r.Context())

	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	rw.WriteJSON(status, result)
}

func (s *Server) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, s.logger)
	overall, results := s.healthService.GetOverallStatus(r.Context())

	status := http.StatusOK
	if overall == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	rw.WriteJSON(status, map[string]interface{}{
		"status": overall,
		"checks": results,
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, s.logger)
	rw.WriteJSON(http.StatusOK, s.provider.Snapshot())
}

// statusWebSocketHandler pushes the provider's snapshot to the client
// every WebSocketInterval until the connection closes.
func (s *Server) statusWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	interval := s.cfg.WebSocketInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readPump(ctx, conn, cancel)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(s.provider.Snapshot()); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames (pings, close) so the connection doesn't
// back up; this status socket is push-only.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
