package routes

import (
	"github.com/anjiri1684/review_scheduler/handlers"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(app *fiber.App, h *handlers.NotificationsHandler) {
	api := app.Group("/api/v1")

	api.Use("/ws", h.Upgrade)
	api.Get("/ws", websocketcontrib.New(h.Serve))
}
