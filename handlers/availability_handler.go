package handlers

import (
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	svc *services.AvailabilityService
	loc *time.Location
}

func NewAvailabilityHandler(svc *services.AvailabilityService, loc *time.Location) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, loc: loc}
}

type CreateWindowRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=recurring specific"`
	DayOfWeek *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	SlotType  string `json:"slot_type" validate:"omitempty,oneof=bookable break"`
	Label     string `json:"label" validate:"max=100"`
}

func (h *AvailabilityHandler) CreateWindow(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, err)
	}
	var req CreateWindowRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}

	w, err := h.svc.CreateWindow(c.UserContext(), a, services.WindowInput{
		Kind:      models.WindowKind(req.Kind),
		DayOfWeek: req.DayOfWeek,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		SlotType:  models.SlotType(req.SlotType),
		Label:     req.Label,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (h *AvailabilityHandler) DeleteWindow(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return respond(c, err)
	}
	if err := h.svc.DeleteWindow(c.UserContext(), a, id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AvailabilityHandler) MyWindows(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, err)
	}
	windows, err := h.svc.ListWindows(c.UserContext(), a.ID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(windows)
}

// ByDate answers GET /availability/by-date?date=YYYY-MM-DD[&reviewerId=].
func (h *AvailabilityHandler) ByDate(c *fiber.Ctx) error {
	raw := c.Query("date")
	if raw == "" {
		return respond(c, apperror.Invalid("date", "is required"))
	}
	date, err := models.ParseDate(raw, h.loc)
	if err != nil {
		return respond(c, apperror.Invalid("date", "must be YYYY-MM-DD"))
	}

	var reviewerID *uuid.UUID
	if r := c.Query("reviewerId"); r != "" {
		id, err := uuid.Parse(r)
		if err != nil {
			return respond(c, apperror.Invalid("reviewerId", "must be a valid UUID"))
		}
		reviewerID = &id
	}

	windows, err := h.svc.ByDate(c.UserContext(), date, reviewerID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"date": models.FormatDate(date), "windows": windows})
}

func (h *AvailabilityHandler) ReviewerSummary(c *fiber.Ctx) error {
	id, err := uuidParam(c, "reviewerId")
	if err != nil {
		return respond(c, err)
	}
	summary, err := h.svc.ReviewerSummary(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(summary)
}
