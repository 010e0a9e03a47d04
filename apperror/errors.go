// Package apperror holds the error kinds the scheduling core hands back to the
// request layer. None of them are transient, so nothing retries on them.
package apperror

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type ConflictKind string

const (
	ConflictDuplicate        ConflictKind = "duplicate"
	ConflictOverlap          ConflictKind = "overlap"
	ConflictEvaluationExists ConflictKind = "evaluation_exists"
	ConflictSessionClash     ConflictKind = "session_clash"
)

// ConflictError carries the record that caused the clash so callers can tell a
// duplicate from an overlap.
type ConflictError struct {
	Kind     ConflictKind
	Message  string
	Existing any
}

func (e *ConflictError) Error() string {
	return e.Message
}

type StateError struct {
	Action string
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a session that is %s", e.Action, e.Status)
}

type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return "you are not permitted to perform this action"
}

var ErrForbidden = &AuthorizationError{}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ErrStale is returned by the store when a compare-and-set update finds the row
// no longer in the expected state.
var ErrStale = errors.New("record was modified concurrently")
