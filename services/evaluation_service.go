package services

import (
	"context"
	"strings"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Complete records the reviewer's stage-one evaluation and moves an accepted
// session to completed, both in one transaction.
func (s *ReviewService) Complete(ctx context.Context, actor models.Actor, id uuid.UUID, in StageOneInput) (*models.ReviewSession, *models.ReviewerEvaluation, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	var evaluation *models.ReviewerEvaluation
	precheck := func(tx Store, session *models.ReviewSession) error {
		existing, err := tx.GetReviewerEvaluation(ctx, session.ID)
		if err == nil {
			return &apperror.ConflictError{
				Kind:     apperror.ConflictEvaluationExists,
				Message:  "a reviewer evaluation for this session has already been submitted",
				Existing: existing,
			}
		}
		if !apperror.IsNotFound(err) {
			return err
		}
		return nil
	}
	session, err := s.transition(ctx, actor, id, ActionComplete, precheck, func(tx Store, session *models.ReviewSession) error {
		evaluation = &models.ReviewerEvaluation{
			ID:           uuid.New(),
			SessionID:    session.ID,
			ReviewerID:   actor.ID,
			Scores:       *in.Scores,
			AverageScore: in.Scores.Average(),
			Feedback:     strings.TrimSpace(in.Feedback),
			Remarks:      strings.TrimSpace(in.Remarks),
		}
		return tx.CreateReviewerEvaluation(ctx, evaluation)
	})
	if err != nil {
		return nil, nil, err
	}

	s.emit(EventSessionCompleted, session, session.AdvisorID)
	return session, evaluation, nil
}

// SubmitFinalScore records the advisor's stage-two evaluation. It needs the
// stage-one evaluation to exist; the final score becomes the session's marks.
func (s *ReviewService) SubmitFinalScore(ctx context.Context, actor models.Actor, id uuid.UUID, in StageTwoInput) (*models.ReviewSession, *models.FinalEvaluation, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	var final *models.FinalEvaluation
	precheck := func(tx Store, session *models.ReviewSession) error {
		existing, err := tx.GetFinalEvaluation(ctx, session.ID)
		if err == nil {
			return &apperror.ConflictError{
				Kind:     apperror.ConflictEvaluationExists,
				Message:  "a final evaluation for this session has already been submitted",
				Existing: existing,
			}
		}
		if !apperror.IsNotFound(err) {
			return err
		}
		return nil
	}
	session, err := s.transition(ctx, actor, id, ActionScore, precheck, func(tx Store, session *models.ReviewSession) error {
		stageOne, err := tx.GetReviewerEvaluation(ctx, session.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return &apperror.StateError{Action: string(ActionScore), Status: string(session.Status) + " without a reviewer evaluation"}
			}
			return err
		}

		final = &models.FinalEvaluation{
			ID:                   uuid.New(),
			SessionID:            session.ID,
			ReviewerEvaluationID: stageOne.ID,
			AdvisorID:            actor.ID,
			FinalScore:           *in.FinalScore,
			Attendance:           valueOr(in.Attendance, 0),
			Discipline:           valueOr(in.Discipline, 0),
			FinalRemarks:         strings.TrimSpace(in.FinalRemarks),
		}
		if in.AdjustedScores != nil {
			adjusted := datatypes.NewJSONType(*in.AdjustedScores)
			final.AdjustedScores = &adjusted
		}
		if err := tx.CreateFinalEvaluation(ctx, final); err != nil {
			return err
		}
		marks := final.FinalScore
		session.Marks = &marks
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.emit(EventSessionScored, session, session.StudentID, session.ReviewerID)
	return session, final, nil
}

// FinalEvaluationView is the stage-two record with advisor-only fields left
// nil for everybody else.
type FinalEvaluationView struct {
	FinalScore     float64            `json:"final_score"`
	FinalRemarks   string             `json:"final_remarks,omitempty"`
	Attendance     *float64           `json:"attendance,omitempty"`
	Discipline     *float64           `json:"discipline,omitempty"`
	AdjustedScores *models.TaskScores `json:"adjusted_scores,omitempty"`
}

type EvaluationView struct {
	SessionID          uuid.UUID                  `json:"session_id"`
	Status             models.SessionStatus       `json:"status"`
	ReviewerEvaluation *models.ReviewerEvaluation `json:"reviewer_evaluation,omitempty"`
	FinalEvaluation    *FinalEvaluationView       `json:"final_evaluation,omitempty"`
}

// Evaluations returns what the actor is allowed to see of a session's scores.
// The advisor sees everything, the reviewer sees their own scores and the final
// result, and the student only the final score and remarks.
func (s *ReviewService) Evaluations(ctx context.Context, actor models.Actor, id uuid.UUID) (*EvaluationView, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	role := participantRole(actor, session)
	if role == "" {
		return nil, apperror.ErrForbidden
	}

	view := &EvaluationView{SessionID: session.ID, Status: session.Status}

	if role != models.RoleStudent {
		stageOne, err := s.store.GetReviewerEvaluation(ctx, id)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		view.ReviewerEvaluation = stageOne
	}

	final, err := s.store.GetFinalEvaluation(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return view, nil
		}
		return nil, err
	}
	view.FinalEvaluation = &FinalEvaluationView{
		FinalScore:   final.FinalScore,
		FinalRemarks: final.FinalRemarks,
	}
	if role == models.RoleAdvisor {
		attendance, discipline := final.Attendance, final.Discipline
		view.FinalEvaluation.Attendance = &attendance
		view.FinalEvaluation.Discipline = &discipline
		if final.AdjustedScores != nil {
			adjusted := final.AdjustedScores.Data()
			view.FinalEvaluation.AdjustedScores = &adjusted
		}
	}
	return view, nil
}
