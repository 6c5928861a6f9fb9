package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 25 * time.Second

// streamEvents is the viewer side of the fan-out: an SSE stream carrying
// the event kind and an empty payload. Receivers re-fetch the resource
// the kind names; a missed event self-heals on the next fetch.
func (h *Handler) streamEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case kind, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", kind)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		}
	}
}
