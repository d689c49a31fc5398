package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LOGQS/coursegen-backend/internal/sse"
)

type SSEHandler struct {
	hub *sse.SSEHub
}

func NewSSEHandler(hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// GET /api/events/:session_id
// Opens the event stream for one generation session. The connection
// carries enhanced and legacy progress, heartbeats and the terminal
// completion or error event.
func (h *SSEHandler) Stream(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, sessionID)
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
