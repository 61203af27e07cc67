package daemon

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/calc/pkg/events"
)

// streamEvents sends hub events to the client as Server-Sent Events. The
// current state is sent first so a new widget renders immediately.
func (s *Server) streamEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	logrus.WithField("subscribers", s.hub.Subscribers()).Debug("event stream opened")

	if b, err := json.Marshal(s.state()); err == nil {
		c.SSEvent(events.DisplayUpdate, string(b))
		c.Writer.Flush()
	}

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	logrus.Debug("event stream closed")
}
