package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered to API consumers. Each code maps to exactly one HTTP status.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeForbidden     = "FORBIDDEN"
	CodeExpired       = "EXPIRED"
	CodeMismatch      = "MISMATCH"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeInternal      = "INTERNAL_SERVER_ERROR"
)

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is reports whether target is an AppError of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError carrying a different message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = message
	return &cpy
}

// Common errors exposed to the rest of the application.
var (
	ErrValidation = &AppError{
		Code:       CodeValidation,
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       CodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrConflict = &AppError{
		Code:       CodeConflict,
		Message:    "Resource already exists",
		StatusCode: http.StatusConflict,
	}

	ErrForbidden = &AppError{
		Code:       CodeForbidden,
		Message:    "Permission denied",
		StatusCode: http.StatusForbidden,
	}

	ErrExpired = &AppError{
		Code:       CodeExpired,
		Message:    "The code or token has expired",
		StatusCode: http.StatusBadRequest,
	}

	ErrMismatch = &AppError{
		Code:       CodeMismatch,
		Message:    "The code or token is invalid",
		StatusCode: http.StatusBadRequest,
	}

	ErrConfiguration = &AppError{
		Code:       CodeConfiguration,
		Message:    "Service is not configured",
		StatusCode: http.StatusInternalServerError,
	}

	ErrUnauthorized = &AppError{
		Code:       CodeUnauthorized,
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       CodeUnauthorized,
		Message:    "Invalid email or password",
		StatusCode: http.StatusUnauthorized,
	}

	ErrRateLimit = &AppError{
		Code:       CodeRateLimit,
		Message:    "Too many requests, please slow down",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrUpstream = &AppError{
		Code:       CodeUpstream,
		Message:    "Upstream service unavailable",
		StatusCode: http.StatusBadGateway,
	}

	ErrInternalServer = &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// NewValidation reports malformed or missing input.
func NewValidation(message string) *AppError {
	return ErrValidation.WithMessage(message)
}

// NewNotFound reports an absent entity, e.g. NewNotFound("post").
func NewNotFound(entity string) *AppError {
	if entity == "" {
		return ErrNotFound
	}
	return ErrNotFound.WithMessage(entity + " not found")
}

func NewConflict(message string) *AppError {
	return ErrConflict.WithMessage(message)
}

func NewForbidden(message string) *AppError {
	return ErrForbidden.WithMessage(message)
}

func NewExpired(message string) *AppError {
	return ErrExpired.WithMessage(message)
}

func NewMismatch(message string) *AppError {
	return ErrMismatch.WithMessage(message)
}

// NewConfiguration reports a required collaborator that has not been configured.
func NewConfiguration(message string) *AppError {
	return ErrConfiguration.WithMessage(message)
}

// KindOf returns the code of err, or CodeInternal when err is not an AppError.
func KindOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
