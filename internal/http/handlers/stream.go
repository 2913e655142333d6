package handlers

import (
	"io"
	"time"

	"github.com/Umar7799/task4safety/internal/broadcast"
	"github.com/Umar7799/task4safety/internal/observability"
	"github.com/gin-gonic/gin"
)

// StreamHandler serves the roster-changed signal over SSE. The stream is
// deliberately unauthenticated: the event carries no data, and the
// re-fetch it triggers goes through the authenticated list endpoint.
type StreamHandler struct {
	hub       *broadcast.Hub
	metrics   *observability.Prom
	heartbeat time.Duration
}

func NewStreamHandler(hub *broadcast.Hub, metrics *observability.Prom) *StreamHandler {
	return &StreamHandler{
		hub:       hub,
		metrics:   metrics,
		heartbeat: 25 * time.Second,
	}
}

func (h *StreamHandler) Events(ctx *gin.Context) {
	ch, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	if h.metrics != nil {
		h.metrics.StreamSubscribers.Inc()
		defer h.metrics.StreamSubscribers.Dec()
	}

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	// tell nginx-style proxies not to buffer the stream
	ctx.Header("X-Accel-Buffering", "no")

	// periodic comment lines keep idle connections alive through proxies
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	clientGone := ctx.Request.Context().Done()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-ch:
			if !ok {
				// hub closed (server shutting down)
				return false
			}

			ctx.SSEvent(event, "")
			return true
		case <-ticker.C:
			_, err := w.Write([]byte(": ping\n\n"))
			return err == nil
		}
	})
}
