package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

const (
	maxLocationLength = 255
	maxReasonLength   = 500
)

type ReviewService struct {
	store          Store
	notifier       Notifier
	cache          Cache
	loc            *time.Location
	meetingBaseURL string
	Now            func() time.Time
}

func NewReviewService(store Store, notifier Notifier, cache Cache, loc *time.Location, meetingBaseURL string) *ReviewService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReviewService{
		store:          store,
		notifier:       notifier,
		cache:          cache,
		loc:            loc,
		meetingBaseURL: strings.TrimRight(meetingBaseURL, "/"),
		Now:            time.Now,
	}
}

type CreateSessionInput struct {
	StudentID   uuid.UUID
	ReviewerID  uuid.UUID
	Week        int
	ScheduledAt time.Time
	Mode        models.SessionMode
	Location    string
}

func (in CreateSessionInput) validate(now time.Time) error {
	if in.StudentID == uuid.Nil {
		return apperror.Invalid("student_id", "is required")
	}
	if in.ReviewerID == uuid.Nil {
		return apperror.Invalid("reviewer_id", "is required")
	}
	if in.Week < 1 {
		return apperror.Invalid("week", "must be a positive week number")
	}
	if in.ScheduledAt.IsZero() {
		return apperror.Invalid("scheduled_at", "is required")
	}
	if !in.ScheduledAt.After(now) {
		return apperror.Invalid("scheduled_at", "must be in the future")
	}
	switch in.Mode {
	case models.ModeOnline:
	case models.ModeOffline:
		if err := validateText("location", in.Location, 1, maxLocationLength); err != nil {
			return err
		}
	default:
		return apperror.Invalid("mode", "must be online or offline")
	}
	return nil
}

// MeetingLink derives the online room for a session from its own id. Callers
// never supply it.
func (s *ReviewService) MeetingLink(id uuid.UUID) string {
	return fmt.Sprintf("%s/review-%s", s.meetingBaseURL, id)
}

func (s *ReviewService) Create(ctx context.Context, actor models.Actor, in CreateSessionInput) (*models.ReviewSession, error) {
	if actor.Role != models.RoleAdvisor {
		return nil, apperror.ErrForbidden
	}
	if err := in.validate(s.Now()); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, in.StudentID, models.RoleStudent, "student_id"); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, in.ReviewerID, models.RoleReviewer, "reviewer_id"); err != nil {
		return nil, err
	}

	session := &models.ReviewSession{
		ID:          uuid.New(),
		StudentID:   in.StudentID,
		AdvisorID:   actor.ID,
		ReviewerID:  in.ReviewerID,
		Week:        in.Week,
		ScheduledAt: in.ScheduledAt,
		Mode:        in.Mode,
		Status:      models.StatusPending,
	}
	if in.Mode == models.ModeOnline {
		link := s.MeetingLink(session.ID)
		session.MeetingLink = &link
	} else {
		loc := strings.TrimSpace(in.Location)
		session.Location = &loc
	}

	err := s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.LockUser(ctx, in.ReviewerID); err != nil {
			return err
		}
		if err := s.checkReviewerFree(ctx, tx, in.ReviewerID, in.ScheduledAt, uuid.Nil); err != nil {
			return err
		}
		return tx.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache)
	log.Printf("✅ Review session %s created for student %s with reviewer %s", session.ID, session.StudentID, session.ReviewerID)
	s.emit(EventSessionCreated, session, session.ReviewerID, session.StudentID)
	return session, nil
}

// checkReviewerFree refuses a start time that collides with another active
// session of the reviewer: either the exact same instant, or a bookable window
// that is already taken on that day.
func (s *ReviewService) checkReviewerFree(ctx context.Context, tx Store, reviewerID uuid.UUID, at time.Time, exclude uuid.UUID) error {
	day := models.Midnight(at, s.loc)
	next := day.AddDate(0, 0, 1)
	sessions, err := tx.ListSessions(ctx, models.SessionFilter{
		ReviewerIDs: []uuid.UUID{reviewerID},
		Statuses:    models.ActiveStatuses,
		From:        &day,
		To:          &next,
	})
	if err != nil {
		return err
	}
	others := sessions[:0]
	for _, other := range sessions {
		if other.ID == exclude {
			continue
		}
		if other.ScheduledAt.Equal(at) {
			return clash(&other)
		}
		others = append(others, other)
	}
	if len(others) == 0 {
		return nil
	}

	windows, err := tx.ListBookableWindowsOn(ctx, day, &reviewerID)
	if err != nil {
		return err
	}
	tod := models.TimeOfDayOf(at, s.loc)
	for i := range windows {
		w := &windows[i]
		rec := w.Recurrence()
		if rec == nil || !rec.AppliesTo(day) || !w.Contains(tod) {
			continue
		}
		for j := range others {
			if w.Contains(models.TimeOfDayOf(others[j].ScheduledAt, s.loc)) {
				return clash(&others[j])
			}
		}
	}
	return nil
}

func clash(existing *models.ReviewSession) error {
	return &apperror.ConflictError{
		Kind:     apperror.ConflictSessionClash,
		Message:  fmt.Sprintf("reviewer already has a %s session at %s", existing.Status, existing.ScheduledAt.Format(time.RFC3339)),
		Existing: existing,
	}
}

func (s *ReviewService) requireRole(ctx context.Context, id uuid.UUID, role models.Role, field string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.Invalid(field, "no such %s", role)
		}
		return err
	}
	if u.Role != role || !u.IsActive {
		return apperror.Invalid(field, "user is not an active %s", role)
	}
	return nil
}

// transitionFn runs inside the transaction after authorization. It may write
// side records; returning an error aborts the whole transition.
type transitionFn func(tx Store, session *models.ReviewSession) error

// transition loads the session, checks the actor and the lifecycle table, runs
// mutate and then moves the status with a compare-and-set on the prior status.
// Cached availability is dropped once the transaction commits. precheck runs before the status check so duplicate submissions surface as
// conflicts rather than state errors.
func (s *ReviewService) transition(ctx context.Context, actor models.Actor, id uuid.UUID, action Action, precheck, mutate transitionFn) (*models.ReviewSession, error) {
	var result *models.ReviewSession
	err := s.store.Transaction(ctx, func(tx Store) error {
		session, err := tx.GetSession(ctx, id)
		if err != nil {
			return err
		}
		if !mayAct(actor, action, session) {
			return apperror.ErrForbidden
		}
		if precheck != nil {
			if err := precheck(tx, session); err != nil {
				return err
			}
		}
		if !CanTransition(action, session.Status) {
			return &apperror.StateError{Action: string(action), Status: string(session.Status)}
		}

		from := session.Status
		if mutate != nil {
			if err := mutate(tx, session); err != nil {
				return err
			}
		}
		session.Status, _ = TargetStatus(action)
		if err := tx.UpdateSession(ctx, session, from); err != nil {
			if errors.Is(err, apperror.ErrStale) {
				if current, gerr := tx.GetSession(ctx, id); gerr == nil {
					return &apperror.StateError{Action: string(action), Status: string(current.Status)}
				}
			}
			return err
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache)
	return result, nil
}

func (s *ReviewService) Accept(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ReviewSession, error) {
	session, err := s.transition(ctx, actor, id, ActionAccept, nil, nil)
	if err != nil {
		return nil, err
	}
	s.emit(EventSessionAccepted, session, session.AdvisorID, session.StudentID)
	return session, nil
}

func (s *ReviewService) Reject(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.ReviewSession, error) {
	if err := validateText("reason", reason, 1, maxReasonLength); err != nil {
		return nil, err
	}
	session, err := s.transition(ctx, actor, id, ActionReject, nil, func(_ Store, session *models.ReviewSession) error {
		r := strings.TrimSpace(reason)
		session.Feedback = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(EventSessionRejected, session, session.AdvisorID)
	return session, nil
}

type RescheduleInput struct {
	ScheduledAt time.Time
	ReviewerID  *uuid.UUID
}

func (s *ReviewService) Reschedule(ctx context.Context, actor models.Actor, id uuid.UUID, in RescheduleInput) (*models.ReviewSession, error) {
	if in.ScheduledAt.IsZero() {
		return nil, apperror.Invalid("scheduled_at", "is required")
	}
	if !in.ScheduledAt.After(s.Now()) {
		return nil, apperror.Invalid("scheduled_at", "must be in the future")
	}
	if in.ReviewerID != nil {
		if err := s.requireRole(ctx, *in.ReviewerID, models.RoleReviewer, "reviewer_id"); err != nil {
			return nil, err
		}
	}

	var previousReviewer uuid.UUID
	session, err := s.transition(ctx, actor, id, ActionReschedule, nil, func(tx Store, session *models.ReviewSession) error {
		previousReviewer = session.ReviewerID
		reviewer := session.ReviewerID
		if in.ReviewerID != nil {
			reviewer = *in.ReviewerID
		}
		if err := tx.LockUser(ctx, reviewer); err != nil {
			return err
		}
		if err := s.checkReviewerFree(ctx, tx, reviewer, in.ScheduledAt, session.ID); err != nil {
			return err
		}
		session.ReviewerID = reviewer
		session.ScheduledAt = in.ScheduledAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	recipients := []uuid.UUID{session.ReviewerID, session.StudentID}
	if previousReviewer != session.ReviewerID {
		recipients = append(recipients, previousReviewer)
	}
	s.emit(EventSessionRescheduled, session, recipients...)
	return session, nil
}

func (s *ReviewService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.ReviewSession, error) {
	if err := validateText("reason", reason, 1, maxReasonLength); err != nil {
		return nil, err
	}
	session, err := s.transition(ctx, actor, id, ActionCancel, nil, func(_ Store, session *models.ReviewSession) error {
		feedback := "Cancelled: " + strings.TrimSpace(reason)
		session.Feedback = &feedback
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(EventSessionCancelled, session, session.ReviewerID, session.StudentID)
	return session, nil
}

func (s *ReviewService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ReviewSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if participantRole(actor, session) == "" {
		return nil, apperror.ErrForbidden
	}
	return session, nil
}

// List returns the sessions the actor takes part in, earliest first.
func (s *ReviewService) List(ctx context.Context, actor models.Actor, statuses []models.SessionStatus) ([]models.ReviewSession, error) {
	f := models.SessionFilter{Statuses: statuses}
	id := actor.ID
	switch actor.Role {
	case models.RoleAdvisor:
		f.AdvisorID = &id
	case models.RoleReviewer:
		f.ReviewerIDs = []uuid.UUID{id}
	case models.RoleStudent:
		f.StudentID = &id
	default:
		return nil, apperror.ErrForbidden
	}
	return s.store.ListSessions(ctx, f)
}

// participantRole is the role the actor plays in this particular session, or
// empty when they are not part of it.
func participantRole(actor models.Actor, s *models.ReviewSession) models.Role {
	switch {
	case actor.Role == models.RoleAdvisor && actor.ID == s.AdvisorID:
		return models.RoleAdvisor
	case actor.Role == models.RoleReviewer && actor.ID == s.ReviewerID:
		return models.RoleReviewer
	case actor.Role == models.RoleStudent && actor.ID == s.StudentID:
		return models.RoleStudent
	}
	return ""
}

func (s *ReviewService) emit(event string, session *models.ReviewSession, recipients ...uuid.UUID) {
	payload := SessionPayload(session, s.loc)
	for _, r := range recipients {
		s.notifier.Notify(event, r, payload)
	}
}

// SessionPayload is the notification body describing a session.
func SessionPayload(session *models.ReviewSession, loc *time.Location) map[string]any {
	payload := map[string]any{
		"session_id":   session.ID.String(),
		"status":       string(session.Status),
		"week":         session.Week,
		"scheduled_at": session.ScheduledAt.In(loc).Format(time.RFC3339),
		"mode":         string(session.Mode),
	}
	if session.MeetingLink != nil {
		payload["meeting_link"] = *session.MeetingLink
	}
	if session.Location != nil {
		payload["location"] = *session.Location
	}
	if session.Feedback != nil && (session.Status == models.StatusCancelled || session.Status == models.StatusRejected) {
		payload["reason"] = *session.Feedback
	}
	return payload
}
