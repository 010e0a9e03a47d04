package services

import (
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

type ConflictKind int

const (
	NoConflict ConflictKind = iota
	DuplicateConflict
	OverlapConflict
)

func (k ConflictKind) String() string {
	switch k {
	case DuplicateConflict:
		return "duplicate"
	case OverlapConflict:
		return "overlap"
	}
	return "none"
}

type ConflictResult struct {
	Kind     ConflictKind
	Existing *models.AvailabilityWindow
}

// CheckConflict compares candidate with the windows already stored for its
// reviewer. Only windows with the same day key and the same slot type take part.
// An exact duplicate wins over an overlap so callers see the most specific cause.
func CheckConflict(candidate *models.AvailabilityWindow, existing []models.AvailabilityWindow) ConflictResult {
	var overlap *models.AvailabilityWindow
	for i := range existing {
		e := &existing[i]
		if e.ID == candidate.ID && e.ID != uuid.Nil {
			continue
		}
		if e.ReviewerID != candidate.ReviewerID || e.DayKey != candidate.DayKey || e.SlotType != candidate.SlotType {
			continue
		}
		if !models.Overlaps(candidate.StartTime, candidate.EndTime, e.StartTime, e.EndTime) {
			continue
		}
		if e.StartTime == candidate.StartTime && e.EndTime == candidate.EndTime {
			return ConflictResult{Kind: DuplicateConflict, Existing: e}
		}
		if overlap == nil {
			overlap = e
		}
	}
	if overlap != nil {
		return ConflictResult{Kind: OverlapConflict, Existing: overlap}
	}
	return ConflictResult{Kind: NoConflict}
}
