// Package errors provides structured HTTP-facing errors with status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeUnauthorized indicates the action needs a signed-in viewer (HTTP 401)
	TypeUnauthorized ErrorType = "unauthorized"
	// TypeNotFound indicates resource not found (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeConflict indicates the request raced another change (HTTP 409)
	TypeConflict ErrorType = "conflict"
	// TypeRateLimited indicates the caller exceeded its request budget (HTTP 429)
	TypeRateLimited ErrorType = "rate_limited"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
	// TypeExternal indicates the store or change feed failed (HTTP 502)
	TypeExternal ErrorType = "external"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// UnauthorizedError marks an action that prompts the viewer to sign in.
func UnauthorizedError(message string) *Error {
	return newError(TypeUnauthorized, message, nil).WithContext("action", "sign_in")
}

func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

func ConflictError(message string) *Error {
	return newError(TypeConflict, message, nil)
}

func RateLimitedError(message string) *Error {
	return newError(TypeRateLimited, message, nil)
}

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	var ctx map[string]any
	if len(e.Context) > 0 {
		ctx = e.Context
	}
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: ctx}
}

// AsStructuredError converts any error into a structured Error.
// An *Error in the chain is returned unchanged, domain sentinels map to their
// client-facing type, and everything else becomes an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return FromDomain(err)
}

// FromDomain maps domain errors to structured errors.
func FromDomain(err error) *Error {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return UnauthorizedError("sign in to continue")
	case errors.Is(err, domain.ErrInvalidVote):
		return ValidationError("vote must be up or down")
	case errors.Is(err, domain.ErrTitleRequired):
		return ValidationError("title is required")
	case errors.Is(err, domain.ErrTitleTooLong):
		return ValidationError("title is too long").WithContext("max_length", 200)
	case errors.Is(err, domain.ErrDescTooLong):
		return ValidationError("description is too long").WithContext("max_length", 1000)
	case errors.Is(err, domain.ErrItemNotFound):
		return NotFoundError("feedback item not found")
	case errors.Is(err, domain.ErrVoteExists), errors.Is(err, domain.ErrVoteNotFound):
		return ConflictError("your vote changed elsewhere, refresh and try again")
	default:
		return InternalError("internal server error", err)
	}
}
