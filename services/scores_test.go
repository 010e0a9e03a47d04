package services

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
)

func TestValidateScore(t *testing.T) {
	cases := []struct {
		v  float64
		ok bool
	}{
		{0, true},
		{0.5, true},
		{7.5, true},
		{10, true},
		{7.3, false},
		{9.75, false},
		{-0.5, false},
		{10.5, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, c := range cases {
		err := ValidateScore("theory", c.v)
		if (err == nil) != c.ok {
			t.Errorf("ValidateScore(%v) = %v, want ok=%v", c.v, err, c.ok)
		}
	}
}

func TestStageOneInputValidate(t *testing.T) {
	good := validStageOne()
	if err := good.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	cases := []struct {
		name  string
		edit  func(in *StageOneInput)
		field string
	}{
		{"missing scores", func(in *StageOneInput) { in.Scores = nil }, "scores"},
		{"bad step", func(in *StageOneInput) { in.Scores = &models.TaskScores{Theory: 8, Practical: 8, Communication: 8.2, ProblemSolving: 8} }, "scores.communication"},
		{"out of range", func(in *StageOneInput) { in.Scores = &models.TaskScores{Theory: 11} }, "scores.theory"},
		{"short feedback", func(in *StageOneInput) { in.Feedback = "  too short " }, "feedback"},
		{"long feedback", func(in *StageOneInput) { in.Feedback = strings.Repeat("a", 2001) }, "feedback"},
		{"long remarks", func(in *StageOneInput) { in.Remarks = strings.Repeat("é", 501) }, "remarks"},
	}
	for _, c := range cases {
		in := validStageOne()
		c.edit(&in)
		var ve *apperror.ValidationError
		if err := in.Validate(); !errors.As(err, &ve) || ve.Field != c.field {
			t.Errorf("%s: expected error on %s, got %v", c.name, c.field, err)
		}
	}
}

func TestStageTwoInputValidate(t *testing.T) {
	cases := []struct {
		name  string
		in    StageTwoInput
		field string
	}{
		{"ok", StageTwoInput{FinalScore: f64(9)}, ""},
		{"missing final score", StageTwoInput{Attendance: f64(5)}, "final_score"},
		{"final score step", StageTwoInput{FinalScore: f64(8.25)}, "final_score"},
		{"attendance range", StageTwoInput{FinalScore: f64(8), Attendance: f64(12)}, "attendance"},
		{"discipline step", StageTwoInput{FinalScore: f64(8), Discipline: f64(3.1)}, "discipline"},
		{"adjusted step", StageTwoInput{FinalScore: f64(8), AdjustedScores: &models.TaskScores{ProblemSolving: 4.4}}, "adjusted_scores.problem_solving"},
		{"long remarks", StageTwoInput{FinalScore: f64(8), FinalRemarks: strings.Repeat("r", 1001)}, "final_remarks"},
	}
	for _, c := range cases {
		err := c.in.Validate()
		if c.field == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", c.name, err)
			}
			continue
		}
		var ve *apperror.ValidationError
		if !errors.As(err, &ve) || ve.Field != c.field {
			t.Errorf("%s: expected error on %s, got %v", c.name, c.field, err)
		}
	}
}
