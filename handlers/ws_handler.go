package handlers

import (
	"log"

	"github.com/anjiri1684/review_scheduler/middleware"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationsHandler struct {
	hub *websocket.Hub
}

func NewNotificationsHandler(hub *websocket.Hub) *NotificationsHandler {
	return &NotificationsHandler{hub: hub}
}

// Upgrade authenticates the ?token= query parameter before the websocket
// handshake, since browsers cannot set headers on it.
func (h *NotificationsHandler) Upgrade(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	a, err := middleware.ParseToken(c.Query("token"))
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	c.Locals("actor", a)
	return c.Next()
}

// Serve keeps the connection registered with the hub until the client goes
// away. Clients only listen; anything they send is discarded.
func (h *NotificationsHandler) Serve(c *websocketcontrib.Conn) {
	a, ok := c.Locals("actor").(models.Actor)
	if !ok {
		c.Close()
		return
	}

	client := &websocket.Client{UserID: a.ID, Conn: c}
	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket read error for client %s: %v", a.ID, err)
			}
			return
		}
	}
}
