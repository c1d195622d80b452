package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/v1/ws/feed connections and streams
// feed events. Anonymous viewers are allowed; a valid token scopes the
// connection to the user so per-user events can be targeted.
func (s *Server) WebsocketHandler() fiber.Handler {
	handler := websocket.New(func(conn *websocket.Conn) {
		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime feed unavailable"}`))
			_ = conn.Close()
			return
		}

		var userID uint
		if v := conn.Locals("userID"); v != nil {
			if id, ok := v.(uint); ok {
				userID = id
			}
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket feed: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if userID, ok := s.optionalUserID(c); ok {
			c.Locals("userID", userID)
		}
		return handler(c)
	}
}
