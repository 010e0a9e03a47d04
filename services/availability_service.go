package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

type AvailabilityService struct {
	store Store
	cache Cache
	loc   *time.Location
	Now   func() time.Time
}

func NewAvailabilityService(store Store, cache Cache, loc *time.Location) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{store: store, cache: cache, loc: loc, Now: time.Now}
}

type WindowInput struct {
	Kind      models.WindowKind
	DayOfWeek *int
	Date      string
	StartTime string
	EndTime   string
	SlotType  models.SlotType
	Label     string
}

// Build validates the input and turns it into an unsaved window.
func (in WindowInput) Build(reviewerID uuid.UUID, loc *time.Location) (*models.AvailabilityWindow, error) {
	var rec models.Recurrence
	switch in.Kind {
	case models.WindowRecurring:
		if in.DayOfWeek == nil {
			return nil, apperror.Invalid("day_of_week", "is required for recurring windows")
		}
		if *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
			return nil, apperror.Invalid("day_of_week", "must be between 0 and 6")
		}
		rec = models.Weekly{Day: time.Weekday(*in.DayOfWeek)}
	case models.WindowSpecific:
		if in.Date == "" {
			return nil, apperror.Invalid("date", "is required for specific windows")
		}
		d, err := models.ParseDate(in.Date, loc)
		if err != nil {
			return nil, apperror.Invalid("date", "must be YYYY-MM-DD")
		}
		rec = models.OnDate{Date: d}
	default:
		return nil, apperror.Invalid("kind", "must be recurring or specific")
	}

	start, err := models.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return nil, apperror.Invalid("start_time", "must be HH:MM")
	}
	end, err := models.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return nil, apperror.Invalid("end_time", "must be HH:MM")
	}
	if start >= end {
		return nil, apperror.Invalid("end_time", "must be after start_time")
	}

	slot := in.SlotType
	if slot == "" {
		slot = models.SlotBookable
	}
	if slot != models.SlotBookable && slot != models.SlotBreak {
		return nil, apperror.Invalid("slot_type", "must be bookable or break")
	}
	label := strings.TrimSpace(in.Label)
	if slot == models.SlotBookable {
		label = ""
	}
	if len(label) > models.MaxLabelLength {
		return nil, apperror.Invalid("label", "must be at most %d characters", models.MaxLabelLength)
	}

	w, err := models.NewAvailabilityWindow(reviewerID, rec, start, end, slot, label)
	if err != nil {
		return nil, apperror.Invalid("window", "%s", err.Error())
	}
	return w, nil
}

func (s *AvailabilityService) CreateWindow(ctx context.Context, actor models.Actor, in WindowInput) (*models.AvailabilityWindow, error) {
	if actor.Role != models.RoleReviewer {
		return nil, apperror.ErrForbidden
	}
	w, err := in.Build(actor.ID, s.loc)
	if err != nil {
		return nil, err
	}
	if w.Date != nil && w.Date.Before(models.Midnight(s.Now(), s.loc)) {
		return nil, apperror.Invalid("date", "cannot add availability for a past date")
	}

	err = s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.LockUser(ctx, actor.ID); err != nil {
			return err
		}
		existing, err := tx.ListWindowsByDayKey(ctx, actor.ID, w.DayKey)
		if err != nil {
			return err
		}
		switch res := CheckConflict(w, existing); res.Kind {
		case DuplicateConflict:
			return &apperror.ConflictError{
				Kind:     apperror.ConflictDuplicate,
				Message:  fmt.Sprintf("an identical window %s-%s already exists", res.Existing.StartTime, res.Existing.EndTime),
				Existing: res.Existing,
			}
		case OverlapConflict:
			return &apperror.ConflictError{
				Kind:     apperror.ConflictOverlap,
				Message:  fmt.Sprintf("window overlaps existing window %s-%s", res.Existing.StartTime, res.Existing.EndTime),
				Existing: res.Existing,
			}
		}
		return tx.CreateWindow(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache)
	log.Printf("✅ Availability window %s created for reviewer %s (%s %s-%s)", w.ID, actor.ID, w.DayKey, w.StartTime, w.EndTime)
	return w, nil
}

func (s *AvailabilityService) DeleteWindow(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleReviewer {
		return apperror.ErrForbidden
	}
	w, err := s.store.GetWindow(ctx, id)
	if err != nil {
		return err
	}
	if w.ReviewerID != actor.ID {
		return apperror.NotFound("availability window")
	}
	if err := s.store.DeleteWindow(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache)
	return nil
}

func (s *AvailabilityService) ListWindows(ctx context.Context, reviewerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	windows, err := s.store.ListReviewerWindows(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if a.Kind != b.Kind {
			return a.Kind == models.WindowRecurring
		}
		if a.DayKey != b.DayKey {
			return a.DayKey < b.DayKey
		}
		return a.StartTime < b.StartTime
	})
	return windows, nil
}

// AvailableWindow is one bookable window as offered on a particular date.
type AvailableWindow struct {
	ID         uuid.UUID         `json:"id"`
	ReviewerID uuid.UUID         `json:"reviewer_id"`
	Kind       models.WindowKind `json:"kind"`
	DayOfWeek  *int              `json:"day_of_week,omitempty"`
	Date       *string           `json:"date,omitempty"`
	StartTime  models.TimeOfDay  `json:"start_time"`
	EndTime    models.TimeOfDay  `json:"end_time"`
	IsBooked   bool              `json:"is_booked"`
}

// ByDate lists the bookable windows that apply on date, optionally for a single
// reviewer. Windows that already started are left out when date is today.
func (s *AvailabilityService) ByDate(ctx context.Context, date time.Time, reviewerID *uuid.UUID) ([]AvailableWindow, error) {
	now := s.Now().In(s.loc)
	day := models.Midnight(date, s.loc)
	isToday := day.Equal(models.Midnight(now, s.loc))

	key := cacheKey(day, reviewerID)
	gen := int64(-1)
	if !isToday && s.cache != nil {
		var raw []byte
		var ok bool
		if raw, gen, ok = s.cache.Get(ctx, key); ok {
			var cached []AvailableWindow
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	windows, err := s.store.ListBookableWindowsOn(ctx, day, reviewerID)
	if err != nil {
		return nil, err
	}

	nowTOD := models.TimeOfDayOf(now, s.loc)
	applicable := make([]models.AvailabilityWindow, 0, len(windows))
	reviewers := map[uuid.UUID]struct{}{}
	for _, w := range windows {
		rec := w.Recurrence()
		if !w.IsBookable() || rec == nil || !rec.AppliesTo(day) {
			continue
		}
		if isToday && w.StartTime <= nowTOD {
			continue
		}
		applicable = append(applicable, w)
		reviewers[w.ReviewerID] = struct{}{}
	}

	var sessions []models.ReviewSession
	if len(applicable) > 0 {
		ids := make([]uuid.UUID, 0, len(reviewers))
		for id := range reviewers {
			ids = append(ids, id)
		}
		from, to := day, day.AddDate(0, 0, 1)
		sessions, err = s.store.ListSessions(ctx, models.SessionFilter{
			ReviewerIDs: ids,
			Statuses:    models.ActiveStatuses,
			From:        &from,
			To:          &to,
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]AvailableWindow, 0, len(applicable))
	for i := range applicable {
		w := &applicable[i]
		out = append(out, AvailableWindow{
			ID:         w.ID,
			ReviewerID: w.ReviewerID,
			Kind:       w.Kind,
			DayOfWeek:  w.DayOfWeek,
			Date:       formatDatePtr(w.Date),
			StartTime:  w.StartTime,
			EndTime:    w.EndTime,
			IsBooked:   isBooked(w, sessions, s.loc),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.EndTime != b.EndTime {
			return a.EndTime < b.EndTime
		}
		if a.ReviewerID != b.ReviewerID {
			return a.ReviewerID.String() < b.ReviewerID.String()
		}
		return a.ID.String() < b.ID.String()
	})

	if !isToday && s.cache != nil && gen >= 0 {
		if raw, err := json.Marshal(out); err == nil {
			s.cache.Set(ctx, key, gen, raw)
		}
	}
	return out, nil
}

// isBooked reports whether an active session of the window's reviewer starts
// inside the window on the queried date. sessions are already limited to that date.
func isBooked(w *models.AvailabilityWindow, sessions []models.ReviewSession, loc *time.Location) bool {
	for i := range sessions {
		if sessions[i].ReviewerID != w.ReviewerID || !sessions[i].Status.IsActive() {
			continue
		}
		if w.Contains(models.TimeOfDayOf(sessions[i].ScheduledAt, loc)) {
			return true
		}
	}
	return false
}

type ReviewerSummary struct {
	ReviewerID       uuid.UUID `json:"reviewer_id"`
	NextSlot         *NextSlot `json:"next_slot,omitempty"`
	BookableWindows  int       `json:"bookable_windows"`
	UpcomingSessions int       `json:"upcoming_sessions"`
}

func (s *AvailabilityService) ReviewerSummary(ctx context.Context, reviewerID uuid.UUID) (*ReviewerSummary, error) {
	reviewer, err := s.store.GetUser(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer.Role != models.RoleReviewer {
		return nil, apperror.NotFound("reviewer")
	}

	windows, err := s.store.ListReviewerWindows(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	sessions, err := s.store.ListSessions(ctx, models.SessionFilter{
		ReviewerIDs: []uuid.UUID{reviewerID},
		Statuses:    models.ActiveStatuses,
		From:        &now,
	})
	if err != nil {
		return nil, err
	}

	summary := &ReviewerSummary{ReviewerID: reviewerID, UpcomingSessions: len(sessions)}
	for i := range windows {
		if windows[i].IsBookable() {
			summary.BookableWindows++
		}
	}
	if next, ok := NextAvailableSlot(windows, now, s.loc); ok {
		summary.NextSlot = &next
	}
	return summary, nil
}

func cacheKey(day time.Time, reviewerID *uuid.UUID) string {
	who := "all"
	if reviewerID != nil {
		who = reviewerID.String()
	}
	return "availability:" + models.FormatDate(day) + ":" + who
}

func invalidate(ctx context.Context, c Cache) {
	if c != nil {
		c.Invalidate(ctx)
	}
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := models.FormatDate(*t)
	return &s
}
