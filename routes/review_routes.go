package routes

import (
	"github.com/anjiri1684/review_scheduler/handlers"
	"github.com/anjiri1684/review_scheduler/middleware"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/gofiber/fiber/v2"
)

func ReviewRoutes(app *fiber.App, h *handlers.ReviewHandler) {
	api := app.Group("/api/v1")

	reviews := api.Group("/reviews", middleware.Protected())
	reviews.Post("", middleware.RoleRequired(models.RoleAdvisor), h.Create)
	reviews.Get("", h.List)
	reviews.Get("/:id", h.Get)
	reviews.Get("/:id/evaluations", h.Evaluations)

	reviews.Patch("/:id/accept", middleware.RoleRequired(models.RoleReviewer), h.Accept)
	reviews.Patch("/:id/reject", middleware.RoleRequired(models.RoleReviewer), h.Reject)
	reviews.Patch("/:id/complete", middleware.RoleRequired(models.RoleReviewer), h.Complete)

	reviews.Patch("/:id/reschedule", middleware.RoleRequired(models.RoleAdvisor), h.Reschedule)
	reviews.Patch("/:id/cancel", middleware.RoleRequired(models.RoleAdvisor), h.Cancel)
	reviews.Patch("/:id/final-score", middleware.RoleRequired(models.RoleAdvisor), h.FinalScore)
}
