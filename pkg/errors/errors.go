package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Workflow errors surfaced by the placement lifecycle.
	ErrDuplicateRegistration = New("DUPLICATE_REGISTRATION", http.StatusConflict, "a registration already exists for this student and period")
	ErrDuplicateTeam         = New("DUPLICATE_TEAM", http.StatusConflict, "a team already exists for this location and period")
	ErrDuplicateMembership   = New("DUPLICATE_MEMBERSHIP", http.StatusConflict, "student is already a member of this team")
	ErrDuplicateCertificate  = New("DUPLICATE_CERTIFICATE", http.StatusConflict, "certificate number is already in use")
	ErrInvalidTransition     = New("INVALID_TRANSITION", http.StatusConflict, "current status does not permit this transition")
	ErrIncompleteDocuments   = New("INCOMPLETE_DOCUMENTS", http.StatusPreconditionFailed, "required documents are missing")
	ErrConflictingUpdate     = New("CONFLICTING_UPDATE", http.StatusConflict, "the record was modified concurrently, retry with fresh state")
	ErrInvalidWeek           = New("INVALID_WEEK", http.StatusBadRequest, "week number is invalid for this report type")
	ErrPeriodClosed          = New("PERIOD_CLOSED", http.StatusUnprocessableEntity, "the registration window for this period is closed")

	// ErrCacheMiss is an internal sentinel, never returned to clients.
	ErrCacheMiss = New("CACHE_MISS", http.StatusInternalServerError, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of the error carrying structured detail for the UI.
func WithDetails(err *Error, details map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}
