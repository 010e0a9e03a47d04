package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotType string

const (
	SlotBookable SlotType = "bookable"
	SlotBreak    SlotType = "break"
)

const MaxLabelLength = 100

type AvailabilityWindow struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReviewerID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_window_day,priority:1" json:"reviewer_id"`
	Kind        WindowKind `gorm:"size:10;not null" json:"kind"`
	DayOfWeek   *int       `gorm:"type:smallint" json:"day_of_week,omitempty"`
	Date        *time.Time `gorm:"type:date" json:"date,omitempty"`
	DayKey      string     `gorm:"size:20;not null;index:idx_window_day,priority:2" json:"-"`
	StartTime   TimeOfDay  `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     TimeOfDay  `gorm:"type:varchar(5);not null" json:"end_time"`
	StartMinute int        `gorm:"type:smallint;not null" json:"-"`
	EndMinute   int        `gorm:"type:smallint;not null" json:"-"`
	SlotType    SlotType   `gorm:"size:10;not null;default:'bookable'" json:"slot_type"`
	Label       string     `gorm:"size:100" json:"label,omitempty"`

	Reviewer User `gorm:"foreignkey:ReviewerID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func NewAvailabilityWindow(reviewerID uuid.UUID, rec Recurrence, start, end TimeOfDay, slotType SlotType, label string) (*AvailabilityWindow, error) {
	if rec == nil {
		return nil, errors.New("a window needs a weekday or a date")
	}
	if start >= end {
		return nil, errors.New("start time must be before end time")
	}
	if slotType != SlotBookable && slotType != SlotBreak {
		return nil, errors.New("slot type must be bookable or break")
	}
	if slotType == SlotBookable && label != "" {
		return nil, errors.New("only breaks carry a label")
	}
	if len(label) > MaxLabelLength {
		return nil, errors.New("label is too long")
	}

	w := &AvailabilityWindow{
		ReviewerID: reviewerID,
		Kind:       rec.Kind(),
		DayKey:     rec.DayKey(),
		StartTime:  start,
		EndTime:    end,
		SlotType:   slotType,
		Label:      label,
	}
	switch r := rec.(type) {
	case Weekly:
		day := int(r.Day)
		w.DayOfWeek = &day
	case OnDate:
		d := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, r.Date.Location())
		w.Date = &d
	}
	w.syncMinutes()
	return w, nil
}

// Recurrence rebuilds the sum type from the stored columns.
func (w *AvailabilityWindow) Recurrence() Recurrence {
	if w.Kind == WindowRecurring && w.DayOfWeek != nil {
		return Weekly{Day: time.Weekday(*w.DayOfWeek)}
	}
	if w.Date != nil {
		return OnDate{Date: *w.Date}
	}
	return nil
}

func (w *AvailabilityWindow) IsBookable() bool {
	return w.SlotType == SlotBookable
}

// Contains reports whether t falls inside [StartTime, EndTime).
func (w *AvailabilityWindow) Contains(t TimeOfDay) bool {
	return t >= w.StartTime && t < w.EndTime
}

func (w *AvailabilityWindow) syncMinutes() {
	w.StartMinute = w.StartTime.Minutes()
	w.EndMinute = w.EndTime.Minutes()
}

func (w *AvailabilityWindow) BeforeSave(_ *gorm.DB) error {
	w.syncMinutes()
	return nil
}
