package handlers

import (
	"strings"
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	svc *services.ReviewService
}

func NewReviewHandler(svc *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type CreateReviewRequest struct {
	StudentID   string    `json:"student_id" validate:"required,uuid"`
	ReviewerID  string    `json:"reviewer_id" validate:"required,uuid"`
	Week        int       `json:"week" validate:"required,min=1"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Mode        string    `json:"mode" validate:"required,oneof=online offline"`
	Location    string    `json:"location" validate:"required_if=Mode offline,max=255"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	ReviewerID  string    `json:"reviewer_id" validate:"omitempty,uuid"`
}

type ScoresRequest struct {
	Theory         *float64 `json:"theory" validate:"required,halfstep"`
	Practical      *float64 `json:"practical" validate:"required,halfstep"`
	Communication  *float64 `json:"communication" validate:"required,halfstep"`
	ProblemSolving *float64 `json:"problem_solving" validate:"required,halfstep"`
}

func (r *ScoresRequest) scores() *models.TaskScores {
	if r == nil {
		return nil
	}
	return &models.TaskScores{
		Theory:         *r.Theory,
		Practical:      *r.Practical,
		Communication:  *r.Communication,
		ProblemSolving: *r.ProblemSolving,
	}
}

type CompleteRequest struct {
	Scores   *ScoresRequest `json:"scores" validate:"required"`
	Feedback string         `json:"feedback" validate:"required,max=2000"`
	Remarks  string         `json:"remarks" validate:"max=500"`
}

type FinalScoreRequest struct {
	FinalScore     *float64       `json:"final_score" validate:"required,halfstep"`
	Attendance     *float64       `json:"attendance" validate:"omitempty,halfstep"`
	Discipline     *float64       `json:"discipline" validate:"omitempty,halfstep"`
	AdjustedScores *ScoresRequest `json:"adjusted_scores" validate:"omitempty"`
	FinalRemarks   string         `json:"final_remarks" validate:"max=1000"`
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, err)
	}
	var req CreateReviewRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}
	studentID, _ := uuid.Parse(req.StudentID)
	reviewerID, _ := uuid.Parse(req.ReviewerID)

	session, err := h.svc.Create(c.UserContext(), a, services.CreateSessionInput{
		StudentID:   studentID,
		ReviewerID:  reviewerID,
		Week:        req.Week,
		ScheduledAt: req.ScheduledAt,
		Mode:        models.SessionMode(req.Mode),
		Location:    req.Location,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// List answers GET /reviews[?status=pending,accepted].
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, err)
	}
	var statuses []models.SessionStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := models.SessionStatus(strings.TrimSpace(s))
			if !st.Valid() {
				return respond(c, apperror.Invalid("status", "unknown status %q", s))
			}
			statuses = append(statuses, st)
		}
	}
	sessions, err := h.svc.List(c.UserContext(), a, statuses)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(sessions)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	session, err := h.svc.Get(c.UserContext(), a, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(session)
}

func (h *ReviewHandler) Accept(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	session, err := h.svc.Accept(c.UserContext(), a, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(session)
}

func (h *ReviewHandler) Reject(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	var req ReasonRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}
	session, err := h.svc.Reject(c.UserContext(), a, id, req.Reason)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(session)
}

func (h *ReviewHandler) Cancel(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	var req ReasonRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}
	session, err := h.svc.Cancel(c.UserContext(), a, id, req.Reason)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(session)
}

func (h *ReviewHandler) Reschedule(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	var req RescheduleRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}
	in := services.RescheduleInput{ScheduledAt: req.ScheduledAt}
	if req.ReviewerID != "" {
		reviewerID, _ := uuid.Parse(req.ReviewerID)
		in.ReviewerID = &reviewerID
	}
	session, err := h.svc.Reschedule(c.UserContext(), a, id, in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(session)
}

func (h *ReviewHandler) Complete(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	var req CompleteRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}
	session, evaluation, err := h.svc.Complete(c.UserContext(), a, id, services.StageOneInput{
		Scores:   req.Scores.scores(),
		Feedback: req.Feedback,
		Remarks:  req.Remarks,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"session": session, "evaluation": evaluation})
}

func (h *ReviewHandler) FinalScore(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	var req FinalScoreRequest
	if err := bind(c, &req); err != nil {
		return respond(c, err)
	}
	session, final, err := h.svc.SubmitFinalScore(c.UserContext(), a, id, services.StageTwoInput{
		FinalScore:     req.FinalScore,
		Attendance:     req.Attendance,
		Discipline:     req.Discipline,
		AdjustedScores: req.AdjustedScores.scores(),
		FinalRemarks:   req.FinalRemarks,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"session": session, "final_evaluation": final})
}

func (h *ReviewHandler) Evaluations(c *fiber.Ctx) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return respond(c, err)
	}
	view, err := h.svc.Evaluations(c.UserContext(), a, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(view)
}

func actorAndID(c *fiber.Ctx) (models.Actor, uuid.UUID, error) {
	a, err := actor(c)
	if err != nil {
		return a, uuid.Nil, err
	}
	id, err := uuidParam(c, "id")
	return a, id, err
}
