// Package middleware implements the request pipeline that sits between the
// request adapter and the transport.
//
// A Chain is an http.RoundTripper holding an ordered list of Handlers. The
// first handler is outermost: it sees the request first and the response
// last. Each handler receives the pipeline and its own index and continues
// the request with pipeline.Next; past the last handler the request goes to
// the transport. Handlers must return the inner response or error as is and
// never swallow failures.
//
// Per-request options travel in the request context, keyed by the option's
// RequestOptionKey, so one request can carry settings for every stage:
//
//	ctx = middleware.WithRequestOptions(ctx, map[string]abs.RequestOption{
//	    middleware.UrlReplaceHandlerOptionKey.Key: opts,
//	})
package middleware

import (
	"context"
	"net/http"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/errors"
)

// Pipeline continues a request after the handler at middlewareIndex.
type Pipeline interface {
	Next(req *http.Request, middlewareIndex int) (*http.Response, error)
	// GetNodeCount returns the number of handlers.
	GetNodeCount() int
}

// Handler is one pipeline stage.
type Handler interface {
	Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error)

// Intercept calls f.
func (f HandlerFunc) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	return f(pipeline, middlewareIndex, req)
}

// Chain runs handlers in order and terminates in the transport.
type Chain struct {
	transport http.RoundTripper
	handlers  []Handler
}

var _ http.RoundTripper = (*Chain)(nil)
var _ Pipeline = (*Chain)(nil)

// NewChain builds a chain over transport. A nil transport uses
// http.DefaultTransport. Nil handlers are skipped.
func NewChain(transport http.RoundTripper, handlers ...Handler) *Chain {
	if transport == nil {
		transport = http.DefaultTransport
	}
	hs := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return &Chain{transport: transport, handlers: hs}
}

// RoundTrip starts the request at the first handler.
func (c *Chain) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.MissingField("request")
	}
	if len(c.handlers) == 0 {
		return c.transport.RoundTrip(req)
	}
	return c.handlers[0].Intercept(c, 0, req)
}

// Next calls the handler after middlewareIndex, or the transport past the
// last handler.
func (c *Chain) Next(req *http.Request, middlewareIndex int) (*http.Response, error) {
	next := middlewareIndex + 1
	if next < len(c.handlers) {
		return c.handlers[next].Intercept(c, next, req)
	}
	return c.transport.RoundTrip(req)
}

// GetNodeCount returns the number of handlers.
func (c *Chain) GetNodeCount() int {
	return len(c.handlers)
}

// Handlers returns a copy of the configured handlers.
func (c *Chain) Handlers() []Handler {
	out := make([]Handler, len(c.handlers))
	copy(out, c.handlers)
	return out
}

// Transport returns the terminal transport.
func (c *Chain) Transport() http.RoundTripper {
	return c.transport
}

// CloseIdleConnections forwards to the transport when it supports it.
func (c *Chain) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if t, ok := c.transport.(closeIdler); ok {
		t.CloseIdleConnections()
	}
}

type requestOptionsKey struct{}

// WithRequestOptions attaches per-request options to ctx. Options already
// present in ctx are kept unless overridden by key.
func WithRequestOptions(ctx context.Context, options map[string]abs.RequestOption) context.Context {
	merged := make(map[string]abs.RequestOption, len(options))
	if existing, ok := ctx.Value(requestOptionsKey{}).(map[string]abs.RequestOption); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range options {
		merged[k] = v
	}
	return context.WithValue(ctx, requestOptionsKey{}, merged)
}

// RequestOptionsFrom returns the options attached to ctx.
func RequestOptionsFrom(ctx context.Context) map[string]abs.RequestOption {
	options, _ := ctx.Value(requestOptionsKey{}).(map[string]abs.RequestOption)
	return options
}

// RequestOptionFrom returns the option attached to req under key, or nil.
func RequestOptionFrom(req *http.Request, key abs.RequestOptionKey) abs.RequestOption {
	if req == nil {
		return nil
	}
	return RequestOptionsFrom(req.Context())[key.Key]
}
