package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskScores are the four dimensions a reviewer marks, each 0-10 in half points.
type TaskScores struct {
	Theory         float64 `gorm:"type:numeric(3,1);not null" json:"theory"`
	Practical      float64 `gorm:"type:numeric(3,1);not null" json:"practical"`
	Communication  float64 `gorm:"type:numeric(3,1);not null" json:"communication"`
	ProblemSolving float64 `gorm:"type:numeric(3,1);not null" json:"problem_solving"`
}

// Fields pairs each dimension with its wire name, in declaration order.
func (s TaskScores) Fields() []ScoreField {
	return []ScoreField{
		{"theory", s.Theory},
		{"practical", s.Practical},
		{"communication", s.Communication},
		{"problem_solving", s.ProblemSolving},
	}
}

type ScoreField struct {
	Name  string
	Value float64
}

// Average is the mean of the four dimensions rounded to two decimals.
func (s TaskScores) Average() float64 {
	sum := s.Theory + s.Practical + s.Communication + s.ProblemSolving
	return math.Round(sum/4*100) / 100
}

type ReviewerEvaluation struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID    uuid.UUID  `gorm:"type:uuid;not null;unique" json:"session_id"`
	ReviewerID   uuid.UUID  `gorm:"type:uuid;not null" json:"reviewer_id"`
	Scores       TaskScores `gorm:"embedded;embeddedPrefix:score_" json:"scores"`
	AverageScore float64    `gorm:"type:numeric(4,2);not null" json:"average_score"`
	Feedback     string     `gorm:"type:text;not null" json:"feedback"`
	Remarks      string     `gorm:"size:500" json:"remarks,omitempty"`

	Session ReviewSession `gorm:"foreignkey:SessionID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeSave keeps AverageScore derived from the scores no matter what was set.
func (e *ReviewerEvaluation) BeforeSave(_ *gorm.DB) error {
	e.AverageScore = e.Scores.Average()
	return nil
}

type FinalEvaluation struct {
	ID                   uuid.UUID                       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID            uuid.UUID                       `gorm:"type:uuid;not null;unique" json:"session_id"`
	ReviewerEvaluationID uuid.UUID                       `gorm:"type:uuid;not null;unique" json:"reviewer_evaluation_id"`
	AdvisorID            uuid.UUID                       `gorm:"type:uuid;not null" json:"advisor_id"`
	FinalScore           float64                         `gorm:"type:numeric(3,1);not null" json:"final_score"`
	Attendance           float64                         `gorm:"type:numeric(3,1);not null;default:0" json:"attendance"`
	Discipline           float64                         `gorm:"type:numeric(3,1);not null;default:0" json:"discipline"`
	AdjustedScores       *datatypes.JSONType[TaskScores] `gorm:"type:jsonb" json:"adjusted_scores,omitempty"`
	FinalRemarks         string                          `gorm:"size:1000" json:"final_remarks,omitempty"`

	Session            ReviewSession      `gorm:"foreignkey:SessionID" json:"-"`
	ReviewerEvaluation ReviewerEvaluation `gorm:"foreignkey:ReviewerEvaluationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
