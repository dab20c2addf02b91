package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// statusSSE streams status updates via Server-Sent Events
func (a *API) statusSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(a.sseInterval)
	defer ticker.Stop()

	for {
		statusJSON, err := json.Marshal(a.statusData())
		if err == nil {
			fmt.Fprintf(c.Writer, "event: status\n")
			fmt.Fprintf(c.Writer, "data: %s\n\n", statusJSON)
			c.Writer.Flush()
		}

		select {
		case <-clientGone:
			return
		case <-ticker.C:
		}
	}
}
