package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iosworks/claimdesk/internal/events"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamEvents upgrades to a websocket and forwards record mutation
// events for every validated tenant. Delivery is best-effort: a slow
// client loses events rather than blocking publishers.
func (s *Server) StreamEvents(c *gin.Context) {
	tenants := requestTenants(c)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer conn.Close()

	out := make(chan events.Event, 64)
	done := make(chan struct{})
	defer close(done)

	for _, tenantID := range tenants.Requested {
		sub, replay, err := s.hub.Subscribe(tenantID)
		if err != nil {
			s.log.Warn("event subscribe failed", zap.String("tenant", tenantID), zap.Error(err))
			continue
		}
		defer sub.Close()

		for _, ev := range replay {
			select {
			case out <- ev:
			default:
			}
		}
		go func(sub *events.Subscription) {
			for {
				select {
				case ev, ok := <-sub.Events():
					if !ok {
						return
					}
					select {
					case out <- ev:
					default:
					}
				case <-done:
					return
				}
			}
		}(sub)
	}

	// Reader only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-out:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
