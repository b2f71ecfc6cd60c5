package handlers

import (
	"log"

	"storefront/internal/models"
	"storefront/pkg/broadcast"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WSHandler upgrades authenticated requests to websocket sessions and
// subscribes them to their rooms on the broadcast hub.
type WSHandler struct {
	hub *broadcast.Hub
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *broadcast.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
	}
}

// RegisterRoutes registers the websocket endpoint. The route must be behind
// the auth middleware so the claims are in Locals before the upgrade.
func (h *WSHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

// handleConnection joins the session to its rooms and blocks on the read
// loop until the client disconnects. Admin sessions join the shared admin
// room; user sessions join their per-user room.
func (h *WSHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)

	if role == models.RoleAdmin {
		h.hub.Join(broadcast.AdminRoom, conn)
	} else if userID != "" {
		h.hub.Join(broadcast.UserRoom(userID), conn)
	}
	defer h.hub.Leave(conn)

	log.Printf("websocket session opened (user=%s role=%s)", userID, role)
	for {
		// Inbound messages are ignored; the read loop only detects disconnect.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	log.Printf("websocket session closed (user=%s)", userID)
}
