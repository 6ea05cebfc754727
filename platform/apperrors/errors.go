package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the application error taxonomy: a name, an HTTP status, a client
// facing message and machine readable details. The cause, when present, is
// never serialized to the client; it is kept for server side logs.
type Error struct {
	Name    string
	Status  int
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the wrapped internal error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// FieldError is a single validation rule violation in joi detail form.
type FieldError struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

// Validation builds a 422 ValidationError carrying rule violation details.
// The validation engine surfaces only the first violated rule, so details
// holds at most one entry.
func Validation(details ...FieldError) *Error {
	list := make([]FieldError, 0, len(details))
	list = append(list, details...)

	message := ""
	if len(list) > 0 {
		message = list[0].Message
	}

	return &Error{
		Name:    "ValidationError",
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Details: list,
	}
}

// ValidationMessage builds a 422 ValidationError with a human message and an
// empty details object. Used for uniqueness violations detected at persist
// time ("domain is already taken", "email is already registered").
func ValidationMessage(message string) *Error {
	return &Error{
		Name:    "ValidationError",
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Details: map[string]any{},
	}
}

// Unauthorized builds a 401 error for missing/invalid/expired credentials.
func Unauthorized(message string, cause error) *Error {
	return &Error{
		Name:    "UnauthorizedError",
		Status:  http.StatusUnauthorized,
		Message: message,
		Details: map[string]any{},
		cause:   cause,
	}
}

// Forbidden builds a 403 error for authenticated but unpermitted access.
func Forbidden(message string) *Error {
	return &Error{
		Name:    "ForbiddenError",
		Status:  http.StatusForbidden,
		Message: message,
		Details: map[string]any{},
	}
}

// NotFound builds a 404 error. A non-empty resource name becomes the message
// "<resource> not found".
func NotFound(resource string) *Error {
	message := ""
	if resource != "" {
		message = resource + " not found"
	}
	return &Error{
		Name:    "NotFoundError",
		Status:  http.StatusNotFound,
		Message: message,
		Details: map[string]any{},
	}
}

// TooManyRequests builds a 429 error. retryAfter, in seconds, is exposed in
// details when positive.
func TooManyRequests(retryAfter int64) *Error {
	details := map[string]any{}
	if retryAfter > 0 {
		details["retryAfter"] = retryAfter
	}
	return &Error{
		Name:    "TooManyRequestsError",
		Status:  http.StatusTooManyRequests,
		Message: "too many requests",
		Details: details,
	}
}

// Internal wraps an unexpected failure. The message and cause stay server
// side; the client only sees the error name.
func Internal(cause error) *Error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return &Error{
		Name:    "InternalError",
		Status:  http.StatusInternalServerError,
		Message: message,
		Details: map[string]any{},
		cause:   cause,
	}
}

// As extracts a taxonomy error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Coerce returns err as a taxonomy error, wrapping anything foreign as an
// InternalError.
func Coerce(err error) *Error {
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal(err)
}

// IsInternal reports whether err serializes as an InternalError.
func (e *Error) IsInternal() bool {
	return e.Name == "InternalError"
}
