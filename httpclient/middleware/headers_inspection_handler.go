package middleware

import (
	"net/http"

	abs "github.com/kbukum/kiotahttp/abstractions"
)

// HeadersInspectionHandlerOptionKey is the request option key for
// HeadersInspectionOptions.
var HeadersInspectionHandlerOptionKey = abs.RequestOptionKey{Key: "HeadersInspectionHandlerOptionKey"}

// HeadersInspectionOptions captures the headers of one exchange. Attach a
// fresh instance to a request and read it after the call returns.
type HeadersInspectionOptions struct {
	InspectRequestHeaders  bool
	InspectResponseHeaders bool
	requestHeaders         *abs.RequestHeaders
	responseHeaders        *abs.ResponseHeaders
}

// NewHeadersInspectionOptions creates options capturing the selected sides.
func NewHeadersInspectionOptions(inspectRequest, inspectResponse bool) *HeadersInspectionOptions {
	return &HeadersInspectionOptions{
		InspectRequestHeaders:  inspectRequest,
		InspectResponseHeaders: inspectResponse,
		requestHeaders:         abs.NewRequestHeaders(),
		responseHeaders:        abs.NewResponseHeaders(),
	}
}

// GetKey implements abstractions.RequestOption.
func (o *HeadersInspectionOptions) GetKey() abs.RequestOptionKey {
	return HeadersInspectionHandlerOptionKey
}

// GetRequestHeaders returns the captured request headers.
func (o *HeadersInspectionOptions) GetRequestHeaders() *abs.RequestHeaders {
	return o.requestHeaders
}

// GetResponseHeaders returns the captured response headers.
func (o *HeadersInspectionOptions) GetResponseHeaders() *abs.ResponseHeaders {
	return o.responseHeaders
}

// HeadersInspectionHandler copies request and response headers into the
// request's HeadersInspectionOptions.
type HeadersInspectionHandler struct {
	options *HeadersInspectionOptions
}

// NewHeadersInspectionHandler creates the handler. The default options
// inspect nothing.
func NewHeadersInspectionHandler(options *HeadersInspectionOptions) *HeadersInspectionHandler {
	if options == nil {
		options = NewHeadersInspectionOptions(false, false)
	}
	return &HeadersInspectionHandler{options: options}
}

// Intercept captures headers around the inner pipeline.
func (h *HeadersInspectionHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	opts := h.options
	if o, ok := RequestOptionFrom(req, HeadersInspectionHandlerOptionKey).(*HeadersInspectionOptions); ok && o != nil {
		opts = o
	}
	if opts.requestHeaders == nil {
		opts.requestHeaders = abs.NewRequestHeaders()
	}
	if opts.responseHeaders == nil {
		opts.responseHeaders = abs.NewResponseHeaders()
	}

	if opts.InspectRequestHeaders {
		for k, values := range req.Header {
			for _, v := range values {
				opts.requestHeaders.Add(k, v)
			}
		}
	}

	resp, err := pipeline.Next(req, middlewareIndex)
	if err != nil {
		return resp, err
	}

	if opts.InspectResponseHeaders && resp != nil {
		for k, values := range resp.Header {
			for _, v := range values {
				opts.responseHeaders.Add(k, v)
			}
		}
	}
	return resp, nil
}
