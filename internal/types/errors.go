package types

import (
	"fmt"
)

// ErrValidation indicates request validation failure. Message is the
// human-readable text surfaced to the caller.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("validation error: %s", e.Field)
	}
	return e.Message
}

// NewValidation builds an ErrValidation.
func NewValidation(field, message string) error {
	return &ErrValidation{Field: field, Message: message}
}

// ErrNotFound indicates a record that is absent or owned by someone else.
// The two cases are deliberately indistinguishable.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ErrStateConflict indicates a mutation attempted on an application that is
// not in a state that allows it.
type ErrStateConflict struct {
	Message string
}

func (e *ErrStateConflict) Error() string {
	return e.Message
}

// ErrInvalidTransition indicates a status transition the lifecycle does not allow.
type ErrInvalidTransition struct {
	From    string
	To      string
	Message string
}

func (e *ErrInvalidTransition) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cannot move application from %s to %s", e.From, e.To)
}

// ErrUnauthorized indicates a missing or invalid principal.
type ErrUnauthorized struct{}

func (e *ErrUnauthorized) Error() string {
	return "not authorized to access this route"
}

// ErrForbidden indicates the principal's role is insufficient.
type ErrForbidden struct {
	Role string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("user role %s is not authorized to access this route", e.Role)
}

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}
