package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"finconsole/internal/events"
)

// EventsHandler pushes live events to the browser over a websocket. Each
// connection holds one hub subscription; closing the socket releases it.
type EventsHandler struct {
	Hub *events.Hub
}

func (h *EventsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/events")
	g.GET("/live", h.live)
	g.GET("/stats", h.stats)
}

// @Summary Live event stream
// @Tags events
// @Param type query string false "event type" default(security_event)
// @Router /api/v1/events/live [get]
func (h *EventsHandler) live(c *gin.Context) {
	eventType := c.DefaultQuery("type", "security_event")
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch, unsubscribe := h.Hub.Subscribe(eventType, 64)
	defer unsubscribe()

	ctx := c.Request.Context()
	// Drain client frames so pings and the close handshake are processed.
	readCtx := conn.CloseRead(ctx)

	for {
		select {
		case <-readCtx.Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "hub shutdown")
				return
			}
			payload, merr := json.Marshal(ev)
			if merr != nil {
				continue
			}
			if werr := conn.Write(ctx, websocket.MessageText, payload); werr != nil {
				return
			}
		}
	}
}

// @Summary Event hub statistics
// @Tags events
// @Success 200 {object} map[string]any
// @Router /api/v1/events/stats [get]
func (h *EventsHandler) stats(c *gin.Context) {
	Ok(c, gin.H{
		"subscribers": h.Hub.SubscriberCount(),
		"dropped":     h.Hub.Dropped(),
	}, nil)
}
