package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidInput indicates an argument or configuration value is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required argument or field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a value does not have the expected format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeInvalidURL indicates a URL or URL template could not be built or parsed.
	ErrCodeInvalidURL ErrorCode = "INVALID_URL"
)

// Payload errors
const (
	// ErrCodeUnsupportedMediaType indicates no codec is registered for a content type.
	ErrCodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	// ErrCodeSerialization indicates a payload could not be encoded or decoded.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_ERROR"
)

// Runtime errors
const (
	// ErrCodeUnauthorized indicates a credential could not be obtained.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeCircuitOpen indicates a request was rejected without being sent
	// because the host kept failing.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
	// ErrCodeTimeout indicates a local wait was abandoned.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:     true,
	ErrCodeCircuitOpen: true,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
