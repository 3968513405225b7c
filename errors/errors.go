package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the structured error type for client-side failures.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// InvalidInput creates a new AppError for an invalid argument.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for configuration validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new AppError for a missing required argument.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("%s cannot be nil or empty", field),
		Details: map[string]any{"field": field},
	}
}

// InvalidFormat creates a new AppError for a value with an unexpected format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("invalid format for %s, expected %s", field, expectedFormat),
		Details: map[string]any{"field": field, "expected_format": expectedFormat},
	}
}

// InvalidURL creates a new AppError for a URL that could not be built or parsed.
func InvalidURL(raw string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeInvalidURL, Message: fmt.Sprintf("invalid url %q", raw),
		Details: map[string]any{"url": raw}, Cause: cause,
	}
}

// UnsupportedMediaType creates a new AppError for a content type with no registered codec.
func UnsupportedMediaType(contentType string) *AppError {
	msg := "no content type was provided for a response with a body"
	if contentType != "" {
		msg = fmt.Sprintf("content type %s does not have a factory registered to be handled", contentType)
	}
	return &AppError{
		Code: ErrCodeUnsupportedMediaType, Message: msg,
		Details: map[string]any{"content_type": contentType},
	}
}

// Serialization creates a new AppError for a payload that could not be encoded or decoded.
func Serialization(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeSerialization, Message: message, Cause: cause}
}

// Unauthorized creates a new AppError for a credential that could not be obtained.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "no credential is available for the request"
	}
	return &AppError{Code: ErrCodeUnauthorized, Message: reason}
}

// CircuitOpen creates a new AppError for a request rejected by an open
// circuit breaker.
func CircuitOpen(host string) *AppError {
	return New(ErrCodeCircuitOpen, fmt.Sprintf("circuit breaker for %s is open", host)).
		WithDetail("host", host)
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
