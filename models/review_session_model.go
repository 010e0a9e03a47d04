package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusAccepted  SessionStatus = "accepted"
	StatusRejected  SessionStatus = "rejected"
	StatusScheduled SessionStatus = "scheduled"
	StatusCompleted SessionStatus = "completed"
	StatusScored    SessionStatus = "scored"
	StatusCancelled SessionStatus = "cancelled"
)

// ActiveStatuses are the statuses that hold a reviewer's time.
var ActiveStatuses = []SessionStatus{StatusPending, StatusAccepted, StatusScheduled}

func (s SessionStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusScheduled,
		StatusCompleted, StatusScored, StatusCancelled:
		return true
	}
	return false
}

type SessionMode string

const (
	ModeOnline  SessionMode = "online"
	ModeOffline SessionMode = "offline"
)

type ReviewSession struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	StudentID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"student_id"`
	AdvisorID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"advisor_id"`
	ReviewerID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"reviewer_id"`
	Week        int           `gorm:"not null" json:"week"`
	ScheduledAt time.Time     `gorm:"not null;index" json:"scheduled_at"`
	Mode        SessionMode   `gorm:"size:10;not null" json:"mode"`
	MeetingLink *string       `gorm:"size:255" json:"meeting_link,omitempty"`
	Location    *string       `gorm:"size:255" json:"location,omitempty"`
	Status      SessionStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Marks       *float64      `gorm:"type:numeric(4,1)" json:"marks,omitempty"`
	Feedback    *string       `gorm:"type:text" json:"feedback,omitempty"`

	Student  User `gorm:"foreignkey:StudentID" json:"-"`
	Advisor  User `gorm:"foreignkey:AdvisorID" json:"-"`
	Reviewer User `gorm:"foreignkey:ReviewerID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participants lists everybody who hears about changes to the session.
func (s *ReviewSession) Participants() []uuid.UUID {
	return []uuid.UUID{s.StudentID, s.ReviewerID, s.AdvisorID}
}
