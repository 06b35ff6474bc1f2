package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nextgen10/evalctl/pkg/eventbus"
)

// streamHandler serves a tenant-scoped server-sent-events stream of
// progress events, heartbeating on idle (spec.md §6 "Progress stream").
func (s *Server) streamHandler(c *gin.Context) {
	t := tenantFrom(c)
	sub := s.bus.Subscribe(t.TenantID)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w gin.ResponseWriter) bool {
		ev, err := sub.Poll(ctx)
		if err != nil {
			return false
		}
		if ev.AgentName == eventbus.Heartbeat.AgentName && ev.Status == eventbus.Heartbeat.Status {
			c.SSEvent("heartbeat", ev)
		} else {
			c.SSEvent("progress", ev)
		}
		return true
	})
}
