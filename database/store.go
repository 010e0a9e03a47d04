package database

import (
	"context"
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the gorm implementation of services.Store.
type Store struct {
	db *gorm.DB
}

var _ services.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx services.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user", "")
	}
	return &u, nil
}

func (s *Store) LockUser(ctx context.Context, id uuid.UUID) error {
	var u models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&u, "id = ?", id).Error
	return translate(err, "user", "")
}

func (s *Store) CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	return translate(s.db.WithContext(ctx).Create(w).Error, "availability window", apperror.ConflictDuplicate)
}

func (s *Store) GetWindow(ctx context.Context, id uuid.UUID) (*models.AvailabilityWindow, error) {
	var w models.AvailabilityWindow
	if err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err, "availability window", "")
	}
	return &w, nil
}

func (s *Store) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.AvailabilityWindow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "availability window", "")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("availability window")
	}
	return nil
}

func (s *Store) ListWindowsByDayKey(ctx context.Context, reviewerID uuid.UUID, dayKey string) ([]models.AvailabilityWindow, error) {
	var windows []models.AvailabilityWindow
	err := s.db.WithContext(ctx).
		Where("reviewer_id = ? AND day_key = ?", reviewerID, dayKey).
		Order("start_minute, end_minute").
		Find(&windows).Error
	return windows, translate(err, "availability windows", "")
}

func (s *Store) ListBookableWindowsOn(ctx context.Context, date time.Time, reviewerID *uuid.UUID) ([]models.AvailabilityWindow, error) {
	q := s.db.WithContext(ctx).
		Where("slot_type = ? AND day_key IN ?", models.SlotBookable, models.DayKeysFor(date))
	if reviewerID != nil {
		q = q.Where("reviewer_id = ?", *reviewerID)
	}
	var windows []models.AvailabilityWindow
	err := q.Order("start_minute, end_minute, reviewer_id, id").Find(&windows).Error
	return windows, translate(err, "availability windows", "")
}

func (s *Store) ListReviewerWindows(ctx context.Context, reviewerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	var windows []models.AvailabilityWindow
	err := s.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("kind, day_of_week, date, start_minute").
		Find(&windows).Error
	return windows, translate(err, "availability windows", "")
}

func (s *Store) CreateSession(ctx context.Context, sess *models.ReviewSession) error {
	return translate(s.db.WithContext(ctx).Create(sess).Error, "review session", apperror.ConflictSessionClash)
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.ReviewSession, error) {
	var sess models.ReviewSession
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, translate(err, "review session", "")
	}
	return &sess, nil
}

// UpdateSession is a compare-and-set on the status column.
func (s *Store) UpdateSession(ctx context.Context, sess *models.ReviewSession, from models.SessionStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.ReviewSession{}).
		Where("id = ? AND status = ?", sess.ID, from).
		Updates(map[string]any{
			"reviewer_id":  sess.ReviewerID,
			"scheduled_at": sess.ScheduledAt,
			"status":       string(sess.Status),
			"marks":        sess.Marks,
			"feedback":     sess.Feedback,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error, "review session", apperror.ConflictSessionClash)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrStale
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, f models.SessionFilter) ([]models.ReviewSession, error) {
	q := s.db.WithContext(ctx).Model(&models.ReviewSession{})
	if len(f.ReviewerIDs) > 0 {
		q = q.Where("reviewer_id IN ?", f.ReviewerIDs)
	}
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.AdvisorID != nil {
		q = q.Where("advisor_id = ?", *f.AdvisorID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.From != nil {
		q = q.Where("scheduled_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("scheduled_at < ?", *f.To)
	}

	var sessions []models.ReviewSession
	err := q.Order("scheduled_at").Find(&sessions).Error
	return sessions, translate(err, "review sessions", "")
}

func (s *Store) CreateReviewerEvaluation(ctx context.Context, e *models.ReviewerEvaluation) error {
	return translate(s.db.WithContext(ctx).Create(e).Error, "reviewer evaluation", apperror.ConflictEvaluationExists)
}

func (s *Store) GetReviewerEvaluation(ctx context.Context, sessionID uuid.UUID) (*models.ReviewerEvaluation, error) {
	var e models.ReviewerEvaluation
	if err := s.db.WithContext(ctx).First(&e, "session_id = ?", sessionID).Error; err != nil {
		return nil, translate(err, "reviewer evaluation", "")
	}
	return &e, nil
}

func (s *Store) CreateFinalEvaluation(ctx context.Context, e *models.FinalEvaluation) error {
	return translate(s.db.WithContext(ctx).Create(e).Error, "final evaluation", apperror.ConflictEvaluationExists)
}

func (s *Store) GetFinalEvaluation(ctx context.Context, sessionID uuid.UUID) (*models.FinalEvaluation, error) {
	var e models.FinalEvaluation
	if err := s.db.WithContext(ctx).First(&e, "session_id = ?", sessionID).Error; err != nil {
		return nil, translate(err, "final evaluation", "")
	}
	return &e, nil
}
