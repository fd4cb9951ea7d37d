package httpserver

import (
	"context"
	"net/http"

	contractsv1 "arboretum/contracts/gen/events/v1"

	"github.com/gorilla/websocket"
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only and carries no credentials.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// handleEventStream godoc
// @Summary Stream garden events
// @Description Upgrades to a websocket and forwards every published garden event as JSON.
// @Tags events
// @Router /v1/garden/events/stream [get]
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writePodError(w, http.StatusServiceUnavailable, "stream_unavailable", "event bus is not configured")
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("event stream upgrade failed",
			"event", "event_stream_upgrade_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	events := make(chan contractsv1.Envelope, 64)

	forward := func(_ context.Context, event contractsv1.Envelope) error {
		select {
		case events <- event:
		default:
			// Slow consumers lose events rather than block publishers.
		}
		return nil
	}

	for _, topic := range []string{"garden.pods", "garden.rewards"} {
		if err := s.bus.Subscribe(ctx, topic, "event-stream", forward); err != nil {
			s.logger.Error("event stream subscribe failed",
				"event", "event_stream_subscribe_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"topic", topic,
				"error", err.Error(),
			)
			cancel()
			_ = conn.Close()
			return
		}
	}

	// Reader goroutine detects the peer closing the socket.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer cancel()
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events:
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			}
		}
	}()
}
