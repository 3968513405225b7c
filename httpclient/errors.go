package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/observability"
	"github.com/kbukum/kiotahttp/serialization"
)

const (
	errorClass4XX   = "4XX"
	errorClass5XX   = "5XX"
	errorCatchAll   = "XXX"
	failedStatusMin = http.StatusBadRequest
)

// ErrorMappingFor selects the error factory for status: the exact code
// first, then the status class ("4XX" or "5XX"), then the catch-all "XXX".
func ErrorMappingFor(mappings abs.ErrorMappings, status int) (serialization.ParsableFactory, bool) {
	if len(mappings) == 0 {
		return nil, false
	}
	if f, ok := mappings[strconv.Itoa(status)]; ok && f != nil {
		return f, true
	}
	var class string
	switch {
	case status >= 400 && status < 500:
		class = errorClass4XX
	case status >= 500 && status < 600:
		class = errorClass5XX
	}
	if class != "" {
		if f, ok := mappings[class]; ok && f != nil {
			return f, true
		}
	}
	if f, ok := mappings[errorCatchAll]; ok && f != nil {
		return f, true
	}
	return nil, false
}

// responseHeaders copies the native response headers.
func responseHeaders(resp *http.Response) *abs.ResponseHeaders {
	headers := abs.NewResponseHeaders()
	for k, values := range resp.Header {
		for _, v := range values {
			headers.Add(k, v)
		}
	}
	return headers
}

// throwIfFailedResponse turns a failure status into an error. Mapped
// statuses are deserialized into their error model; anything else becomes
// an *abs.ApiError carrying the raw body.
func (a *RequestAdapter) throwIfFailedResponse(ctx context.Context, resp *http.Response, body []byte, mappings abs.ErrorMappings) error {
	if resp.StatusCode < failedStatusMin {
		return nil
	}
	ctx, span := a.tracer().Start(ctx, observability.SpanThrowFailedResponses)
	defer span.End()
	span.SetAttributes(attribute.Int(observability.AttrHTTPStatusCode, resp.StatusCode))

	headers := responseHeaders(resp)
	factory, ok := ErrorMappingFor(mappings, resp.StatusCode)
	span.SetAttributes(attribute.Bool(observability.AttrErrorMappingFound, ok))
	if !ok {
		err := &abs.ApiError{
			Message:            fmt.Sprintf("the server returned an unexpected status code and no error factory is registered for this code: %d", resp.StatusCode),
			ResponseStatusCode: resp.StatusCode,
			ResponseHeaders:    headers,
			Body:               body,
		}
		span.RecordError(err)
		return err
	}

	hasBody := len(bytes.TrimSpace(body)) > 0
	span.SetAttributes(attribute.Bool(observability.AttrErrorBodyFound, hasBody))
	if !hasBody {
		err := &abs.ApiError{
			Message:            fmt.Sprintf("the server returned an unexpected status code with no response body: %d", resp.StatusCode),
			ResponseStatusCode: resp.StatusCode,
			ResponseHeaders:    headers,
		}
		span.RecordError(err)
		return err
	}

	// A body the mapped model cannot be read from still surfaces the status.
	undecodable := func(cause error) error {
		err := &abs.ApiError{
			Message:            fmt.Sprintf("the server returned an unexpected status code and the error body could not be deserialized: %d: %v", resp.StatusCode, cause),
			ResponseStatusCode: resp.StatusCode,
			ResponseHeaders:    headers,
			Body:               body,
			Err:                cause,
		}
		span.RecordError(err)
		return err
	}
	rootNode, err := a.getRootParseNode(ctx, resp, body)
	if err != nil {
		return undecodable(err)
	}
	value, err := rootNode.GetObjectValue(factory)
	if err != nil {
		return undecodable(errors.Serialization("failed to deserialize error response", err))
	}
	if value == nil {
		return &abs.ApiError{
			Message:            fmt.Sprintf("the server returned an unexpected status code and the error registered for this code failed to deserialize: %d", resp.StatusCode),
			ResponseStatusCode: resp.StatusCode,
			ResponseHeaders:    headers,
			Body:               body,
		}
	}

	switch v := value.(type) {
	case abs.ApiErrorable:
		v.SetResponseHeaders(headers)
		v.SetStatusCode(resp.StatusCode)
		span.RecordError(v)
		return v
	case error:
		span.RecordError(v)
		return v
	default:
		return &abs.ApiError{
			Message:            fmt.Sprintf("the error model registered for status %d does not implement error: %T", resp.StatusCode, value),
			ResponseStatusCode: resp.StatusCode,
			ResponseHeaders:    headers,
			Body:               body,
		}
	}
}
