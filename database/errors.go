package database

import (
	"errors"
	"fmt"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// translate maps driver errors onto the application error types. unique names
// what a unique violation means for the table being written.
func translate(err error, resource string, unique apperror.ConflictKind) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperror.ConflictError{Kind: unique, Message: conflictMessages[unique]}
		case pgExclusionViolation:
			return &apperror.ConflictError{Kind: apperror.ConflictOverlap, Message: conflictMessages[apperror.ConflictOverlap]}
		}
	}
	return fmt.Errorf("%s: %w", resource, err)
}

var conflictMessages = map[apperror.ConflictKind]string{
	apperror.ConflictDuplicate:        "an identical availability window already exists",
	apperror.ConflictOverlap:          "the window overlaps an existing availability window",
	apperror.ConflictEvaluationExists: "an evaluation for this session has already been submitted",
	apperror.ConflictSessionClash:     "reviewer is already booked at this time",
}
