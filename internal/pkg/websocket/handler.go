package websocket

import (
	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// Handler upgrades operator requests to run event streams.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleConnection upgrades the request and registers the client with the
// hub. Authentication happens in the middleware in front of it.
func (h *Handler) HandleConnection(c *gin.Context) {
	operator := c.GetString(auth.OperatorContextKey)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote an HTTP error
		h.hub.log.Warn().Err(err).Str("operator", operator).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		operator: operator,
		addr:     conn.RemoteAddr().String(),
		log:      h.hub.log,
	}
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
