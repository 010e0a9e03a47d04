package services

import (
	"context"
	"time"

	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

// Store is the persistence contract of the scheduling core. Lookups return
// *apperror.NotFoundError when nothing matches; writes that trip a storage-level
// uniqueness or exclusion constraint return *apperror.ConflictError.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction.
	// Any error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// LockUser takes a row lock on the user so writes scoped to one reviewer
	// are serialised for the rest of the transaction.
	LockUser(ctx context.Context, id uuid.UUID) error

	CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error
	GetWindow(ctx context.Context, id uuid.UUID) (*models.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id uuid.UUID) error
	ListWindowsByDayKey(ctx context.Context, reviewerID uuid.UUID, dayKey string) ([]models.AvailabilityWindow, error)
	// ListBookableWindowsOn returns bookable windows whose day key matches date,
	// optionally for one reviewer.
	ListBookableWindowsOn(ctx context.Context, date time.Time, reviewerID *uuid.UUID) ([]models.AvailabilityWindow, error)
	ListReviewerWindows(ctx context.Context, reviewerID uuid.UUID) ([]models.AvailabilityWindow, error)

	CreateSession(ctx context.Context, s *models.ReviewSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.ReviewSession, error)
	// UpdateSession writes s only if the stored status still equals from;
	// otherwise it returns apperror.ErrStale.
	UpdateSession(ctx context.Context, s *models.ReviewSession, from models.SessionStatus) error
	ListSessions(ctx context.Context, f models.SessionFilter) ([]models.ReviewSession, error)

	CreateReviewerEvaluation(ctx context.Context, e *models.ReviewerEvaluation) error
	GetReviewerEvaluation(ctx context.Context, sessionID uuid.UUID) (*models.ReviewerEvaluation, error)
	CreateFinalEvaluation(ctx context.Context, e *models.FinalEvaluation) error
	GetFinalEvaluation(ctx context.Context, sessionID uuid.UUID) (*models.FinalEvaluation, error)
}

// Notifier receives fire-and-forget events. Implementations must not block the
// caller and must never report failure back into a transition.
type Notifier interface {
	Notify(event string, recipientID uuid.UUID, payload map[string]any)
}

// Cache stores serialised availability query results. A nil Cache disables
// caching.
type Cache interface {
	// Get returns the cached value and the generation it looked under, hit or
	// miss. A negative generation means the cache is unusable right now.
	Get(ctx context.Context, key string) ([]byte, int64, bool)
	// Set stores value under gen. A result computed before an invalidation
	// therefore lands under a generation nobody reads any more.
	Set(ctx context.Context, key string, gen int64, value []byte)
	// Invalidate drops every cached result.
	Invalidate(ctx context.Context)
}

const (
	EventSessionCreated     = "session.created"
	EventSessionAccepted    = "session.accepted"
	EventSessionRejected    = "session.rejected"
	EventSessionRescheduled = "session.rescheduled"
	EventSessionCancelled   = "session.cancelled"
	EventSessionCompleted   = "session.completed"
	EventSessionScored      = "session.scored"
	EventSessionReminder    = "session.reminder"
)

type nopNotifier struct{}

func (nopNotifier) Notify(string, uuid.UUID, map[string]any) {}
