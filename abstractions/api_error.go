package abstractions

import (
	"fmt"

	"github.com/kbukum/kiotahttp/serialization"
)

// ErrorMappings maps a status code ("404"), a status class ("4XX", "5XX")
// or the catch-all "XXX" to the factory of the error model to deserialize.
type ErrorMappings map[string]serialization.ParsableFactory

// ApiErrorable is implemented by error models so the adapter can stamp the
// response status and headers on them.
type ApiErrorable interface {
	error
	SetResponseHeaders(headers *ResponseHeaders)
	SetStatusCode(code int)
}

// ApiError is returned for failure statuses that have no mapped error model.
// Generated error models embed it.
type ApiError struct {
	Message            string
	ResponseStatusCode int
	ResponseHeaders    *ResponseHeaders
	// Body is the raw response payload when no model was mapped or the
	// mapped model could not be read from it.
	Body []byte
	// Err is the decoding failure that kept the mapped model from being read.
	Err error
}

// NewApiError creates an ApiError with empty headers.
func NewApiError() *ApiError {
	return &ApiError{ResponseHeaders: NewResponseHeaders()}
}

func (e *ApiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("error status code received from the API: %d", e.ResponseStatusCode)
}

func (e *ApiError) Unwrap() error { return e.Err }

func (e *ApiError) GetStatusCode() int { return e.ResponseStatusCode }

func (e *ApiError) SetStatusCode(code int) { e.ResponseStatusCode = code }

func (e *ApiError) GetResponseHeaders() *ResponseHeaders { return e.ResponseHeaders }

func (e *ApiError) SetResponseHeaders(headers *ResponseHeaders) { e.ResponseHeaders = headers }
