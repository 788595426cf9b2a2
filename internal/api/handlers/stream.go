package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/events"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// StreamHandler pushes deployment and domain transitions over a websocket.
type StreamHandler struct {
	broker     *events.Broker
	controller *deploy.Controller
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(broker *events.Broker, controller *deploy.Controller, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		broker:     broker,
		controller: controller,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream handles GET /v1/sites/{siteID}/deployments/stream. The first message
// is the site's current status; every later message is an events.Event.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := siteID(r)

	// Subscribe before reading the status so no transition is missed.
	sub := h.broker.Subscribe(r.Context(), id)
	defer h.broker.Unsubscribe(sub)

	view, err := h.controller.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", "error", err, "site_id", id)
		return
	}
	defer conn.Close()

	h.logger.Info("event stream started", "site_id", id, "subscriber_id", sub.ID)

	// Drain client frames so pongs and close messages are processed.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(view); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			h.logger.Debug("event stream closed by client", "site_id", id)
			return
		case e, ok := <-sub.Ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
