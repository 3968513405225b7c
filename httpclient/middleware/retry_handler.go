package middleware

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/observability"
)

// RetryHandlerOptionKey is the request option key for RetryHandlerOptions.
var RetryHandlerOptionKey = abs.RequestOptionKey{Key: "RetryHandlerOptionKey"}

const (
	retryAttemptHeader = "Retry-Attempt"
	retryAfterHeader   = "Retry-After"

	defaultMaxRetries   = 3
	absoluteMaxRetries  = 10
	defaultInitialDelay = 3 * time.Second
	absoluteMaxDelay    = 180 * time.Second
)

// RetryHandlerOptions configures RetryHandler. A zero MaxRetries disables
// retrying.
type RetryHandlerOptions struct {
	// MaxRetries is capped at 10.
	MaxRetries int `mapstructure:"max_retries" json:"max_retries" validate:"gte=0,lte=10"`
	// InitialDelay is the first backoff interval when the response has no
	// Retry-After header.
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay"`
	// MaxDelay caps a single wait. Responses asking for longer are returned
	// as is.
	MaxDelay time.Duration `mapstructure:"max_delay" json:"max_delay"`
	// ShouldRetry, when set, can veto a retry.
	ShouldRetry func(delay time.Duration, executionCount int, req *http.Request, resp *http.Response) bool `mapstructure:"-" json:"-"`
}

// NewRetryHandlerOptions returns options with three retries.
func NewRetryHandlerOptions() *RetryHandlerOptions {
	return &RetryHandlerOptions{
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     absoluteMaxDelay,
	}
}

// GetKey implements abstractions.RequestOption.
func (o *RetryHandlerOptions) GetKey() abs.RequestOptionKey {
	return RetryHandlerOptionKey
}

func (o *RetryHandlerOptions) maxRetries() int {
	if o == nil || o.MaxRetries <= 0 {
		return 0
	}
	if o.MaxRetries > absoluteMaxRetries {
		return absoluteMaxRetries
	}
	return o.MaxRetries
}

func (o *RetryHandlerOptions) initialDelay() time.Duration {
	if o.InitialDelay <= 0 {
		return defaultInitialDelay
	}
	return o.InitialDelay
}

func (o *RetryHandlerOptions) maxDelay() time.Duration {
	if o.MaxDelay <= 0 || o.MaxDelay > absoluteMaxDelay {
		return absoluteMaxDelay
	}
	return o.MaxDelay
}

// RetryHandler resends requests answered with 429, 503 or 504. It honors
// Retry-After and otherwise backs off exponentially. Requests whose body
// cannot be replayed are never retried.
type RetryHandler struct {
	options *RetryHandlerOptions
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// NewRetryHandler creates the handler. Nil options disable retries unless a
// request carries its own.
func NewRetryHandler(options *RetryHandlerOptions) *RetryHandler {
	return &RetryHandler{options: options, sleep: sleepContext, now: time.Now}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Intercept sends the request and retries while the status is retriable.
func (h *RetryHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	opts := h.options
	if o, ok := RequestOptionFrom(req, RetryHandlerOptionKey).(*RetryHandlerOptions); ok && o != nil {
		opts = o
	}

	resp, err := pipeline.Next(req, middlewareIndex)
	if err != nil {
		return resp, err
	}
	maxRetries := opts.maxRetries()
	if maxRetries == 0 || !isRetriableStatus(resp.StatusCode) || !isBodyRewindable(req) {
		return resp, nil
	}

	ctx, span := tracerFor(req).Start(req.Context(), observability.SpanRetryHandler)
	defer span.End()
	span.SetAttributes(attribute.Bool(observability.AttrRetryEnabled, true))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.initialDelay()
	b.MaxInterval = opts.maxDelay()
	b.Reset()

	for attempt := 1; attempt <= maxRetries && isRetriableStatus(resp.StatusCode); attempt++ {
		delay, ok := retryAfter(resp, h.now())
		if !ok {
			delay = b.NextBackOff()
		}
		if delay == backoff.Stop || delay > opts.maxDelay() {
			return resp, nil
		}
		if opts.ShouldRetry != nil && !opts.ShouldRetry(delay, attempt, req, resp) {
			return resp, nil
		}

		drainAndClose(resp)
		if err := h.sleep(ctx, delay); err != nil {
			span.RecordError(err)
			return nil, err
		}

		next := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			next.Body = body
		}
		next.Header.Set(retryAttemptHeader, strconv.Itoa(attempt))
		span.SetAttributes(
			attribute.Int(observability.AttrRetryCount, attempt),
			attribute.Float64(observability.AttrRetryDelay, delay.Seconds()),
		)

		resp, err = pipeline.Next(next, middlewareIndex)
		if err != nil {
			span.RecordError(err)
			return resp, err
		}
	}
	return resp, nil
}

func isRetriableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isBodyRewindable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// retryAfter reads Retry-After as delay seconds or an HTTP date.
func retryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	v := resp.Header.Get(retryAfterHeader)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
