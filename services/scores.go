package services

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
)

const (
	MinScore = 0
	MaxScore = 10

	minFeedbackLength     = 10
	maxFeedbackLength     = 2000
	maxRemarksLength      = 500
	maxFinalRemarksLength = 1000
)

// ValidateScore checks a score is inside [0,10] and on a half-point step.
func ValidateScore(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < MinScore || v > MaxScore {
		return apperror.Invalid(field, "must be between %d and %d", MinScore, MaxScore)
	}
	tenths := v * 10
	rounded := math.Round(tenths)
	if math.Abs(tenths-rounded) > 1e-9 || int(rounded)%5 != 0 {
		return apperror.Invalid(field, "must be in steps of 0.5")
	}
	return nil
}

func validateTaskScores(prefix string, s models.TaskScores) error {
	for _, f := range s.Fields() {
		if err := ValidateScore(prefix+f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateText(field, v string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if n < min {
		if min == 1 {
			return apperror.Invalid(field, "is required")
		}
		return apperror.Invalid(field, "must be at least %d characters", min)
	}
	if n > max {
		return apperror.Invalid(field, "must be at most %d characters", max)
	}
	return nil
}

// StageOneInput is what a reviewer submits when completing a session. The
// average is never part of it.
type StageOneInput struct {
	Scores   *models.TaskScores
	Feedback string
	Remarks  string
}

func (in StageOneInput) Validate() error {
	if in.Scores == nil {
		return apperror.Invalid("scores", "all four scores are required")
	}
	if err := validateTaskScores("scores.", *in.Scores); err != nil {
		return err
	}
	if err := validateText("feedback", in.Feedback, minFeedbackLength, maxFeedbackLength); err != nil {
		return err
	}
	return validateText("remarks", in.Remarks, 0, maxRemarksLength)
}

type StageTwoInput struct {
	FinalScore     *float64
	Attendance     *float64
	Discipline     *float64
	AdjustedScores *models.TaskScores
	FinalRemarks   string
}

func (in StageTwoInput) Validate() error {
	if in.FinalScore == nil {
		return apperror.Invalid("final_score", "is required")
	}
	if err := ValidateScore("final_score", *in.FinalScore); err != nil {
		return err
	}
	if in.Attendance != nil {
		if err := ValidateScore("attendance", *in.Attendance); err != nil {
			return err
		}
	}
	if in.Discipline != nil {
		if err := ValidateScore("discipline", *in.Discipline); err != nil {
			return err
		}
	}
	if in.AdjustedScores != nil {
		if err := validateTaskScores("adjusted_scores.", *in.AdjustedScores); err != nil {
			return err
		}
	}
	return validateText("final_remarks", in.FinalRemarks, 0, maxFinalRemarksLength)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
