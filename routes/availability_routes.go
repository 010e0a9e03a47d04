package routes

import (
	"github.com/anjiri1684/review_scheduler/handlers"
	"github.com/anjiri1684/review_scheduler/middleware"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/gofiber/fiber/v2"
)

func AvailabilityRoutes(app *fiber.App, h *handlers.AvailabilityHandler) {
	api := app.Group("/api/v1")

	availability := api.Group("/availability", middleware.Protected())
	availability.Get("/by-date", h.ByDate)
	availability.Get("/me", middleware.RoleRequired(models.RoleReviewer), h.MyWindows)
	availability.Post("", middleware.RoleRequired(models.RoleReviewer), h.CreateWindow)
	availability.Delete("/:id", middleware.RoleRequired(models.RoleReviewer), h.DeleteWindow)

	reviewers := api.Group("/reviewers", middleware.Protected())
	reviewers.Get("/:reviewerId/summary", h.ReviewerSummary)
}
