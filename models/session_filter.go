package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionFilter narrows a session listing. Zero fields do not filter; From/To
// bound ScheduledAt as [From, To).
type SessionFilter struct {
	ReviewerIDs []uuid.UUID
	StudentID   *uuid.UUID
	AdvisorID   *uuid.UUID
	Statuses    []SessionStatus
	From        *time.Time
	To          *time.Time
}

func (f SessionFilter) Matches(s *ReviewSession) bool {
	if len(f.ReviewerIDs) > 0 && !containsID(f.ReviewerIDs, s.ReviewerID) {
		return false
	}
	if f.StudentID != nil && *f.StudentID != s.StudentID {
		return false
	}
	if f.AdvisorID != nil && *f.AdvisorID != s.AdvisorID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, st := range f.Statuses {
			if st == s.Status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && s.ScheduledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.ScheduledAt.Before(*f.To) {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
