package middleware

import (
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/observability"
)

// CircuitState is the state of one host's breaker.
type CircuitState int

const (
	// CircuitClosed lets requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests without sending them.
	CircuitOpen
	// CircuitHalfOpen lets a limited number of probes through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures CircuitBreakerHandler.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Defaults to 5.
	MaxFailures int `mapstructure:"max_failures" json:"max_failures" validate:"gte=0"`
	// OpenTimeout is how long the circuit stays open before probing.
	// Defaults to 30s.
	OpenTimeout time.Duration `mapstructure:"open_timeout" json:"open_timeout"`
	// HalfOpenMaxCalls is the number of probes allowed, and the number of
	// successes needed to close again. Defaults to 1.
	HalfOpenMaxCalls int `mapstructure:"half_open_max_calls" json:"half_open_max_calls" validate:"gte=0"`
	// OnStateChange is called with the host whenever a breaker changes state.
	// It runs while the handler is locked and must not call back into it.
	OnStateChange func(host string, from, to CircuitState) `mapstructure:"-" json:"-"`
}

// CircuitBreakerHandler fails fast for hosts that keep answering with 5xx
// or transport errors. Each host has its own breaker.
type CircuitBreakerHandler struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	breakers map[string]*breaker
}

type breaker struct {
	state         CircuitState
	failures      int
	successes     int
	halfOpenCalls int
	openedAt      time.Time
}

// NewCircuitBreakerHandler creates a handler from cfg.
func NewCircuitBreakerHandler(cfg CircuitBreakerConfig) *CircuitBreakerHandler {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	return &CircuitBreakerHandler{config: cfg, now: time.Now, breakers: make(map[string]*breaker)}
}

// State returns the breaker state for host.
func (h *CircuitBreakerHandler) State(host string) CircuitState {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.breakers[host]
	if !ok {
		return CircuitClosed
	}
	return h.current(host, b)
}

// Reset closes every breaker.
func (h *CircuitBreakerHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.breakers = make(map[string]*breaker)
}

// Intercept rejects the request with a CIRCUIT_OPEN error while the host's
// circuit is open, otherwise sends it and records the outcome.
func (h *CircuitBreakerHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	if state, ok := h.allow(host); !ok {
		_, span := tracerFor(req).Start(req.Context(), observability.SpanCircuitBreakerHandler)
		span.SetAttributes(attribute.String(observability.AttrCircuitState, state.String()))
		err := errors.CircuitOpen(host)
		span.RecordError(err)
		span.End()
		return nil, err
	}

	resp, err := pipeline.Next(req, middlewareIndex)
	h.record(host, err != nil || resp.StatusCode >= http.StatusInternalServerError)
	return resp, err
}

func (h *CircuitBreakerHandler) allow(host string) (CircuitState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.breakers[host]
	if b == nil {
		b = &breaker{}
		h.breakers[host] = b
	}
	switch state := h.current(host, b); state {
	case CircuitClosed:
		return state, true
	case CircuitHalfOpen:
		if b.halfOpenCalls < h.config.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return state, true
		}
		return state, false
	default:
		return state, false
	}
}

func (h *CircuitBreakerHandler) record(host string, failed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.breakers[host]
	if b == nil {
		return
	}
	state := h.current(host, b)
	if failed {
		b.failures++
		switch state {
		case CircuitClosed:
			if b.failures >= h.config.MaxFailures {
				h.transition(host, b, CircuitOpen)
			}
		case CircuitHalfOpen:
			h.transition(host, b, CircuitOpen)
		}
		return
	}
	switch state {
	case CircuitClosed:
		b.failures = 0
	case CircuitHalfOpen:
		b.successes++
		if b.successes >= h.config.HalfOpenMaxCalls {
			h.transition(host, b, CircuitClosed)
		}
	}
}

// current moves an open breaker to half-open once OpenTimeout has passed.
func (h *CircuitBreakerHandler) current(host string, b *breaker) CircuitState {
	if b.state == CircuitOpen && h.now().Sub(b.openedAt) >= h.config.OpenTimeout {
		h.transition(host, b, CircuitHalfOpen)
	}
	return b.state
}

func (h *CircuitBreakerHandler) transition(host string, b *breaker, to CircuitState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.successes = 0
	b.halfOpenCalls = 0
	switch to {
	case CircuitClosed:
		b.failures = 0
	case CircuitOpen:
		b.openedAt = h.now()
	}
	if h.config.OnStateChange != nil {
		h.config.OnStateChange(host, from, to)
	}
}
