// Package errs defines the error kinds shared by all LIMS domain services.
// Handlers translate these into HTTP status codes with HTTPStatus; services
// construct them with enough context (entity, id, field) for a user-facing
// message.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or missing required input.
type ValidationError struct {
	Entity string
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Entity, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Msg)
}

// Validation builds a ValidationError for a specific field.
func Validation(entity, field, msg string) error {
	return &ValidationError{Entity: entity, Field: field, Msg: msg}
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidTransitionError reports a status change that is not reachable from
// the current state.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: invalid transition from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// InvalidTransition builds an InvalidTransitionError.
func InvalidTransition(entity, id, from, to string) error {
	return &InvalidTransitionError{Entity: entity, ID: id, From: from, To: to}
}

// InvalidStateError reports an operation attempted on a terminal or finalized
// entity.
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s in state %s", e.Entity, e.ID, e.Op, e.State)
}

// InvalidState builds an InvalidStateError.
func InvalidState(entity, id, state, op string) error {
	return &InvalidStateError{Entity: entity, ID: id, State: state, Op: op}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// HTTPStatus maps an error to the HTTP status code handlers should return.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		it *InvalidTransitionError
		is *InvalidStateError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &it), errors.As(err, &is):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
