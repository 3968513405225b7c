package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/kbukum/kiotahttp/errors"
)

type transition struct {
	host     string
	from, to CircuitState
}

func circuitFixture(cfg CircuitBreakerConfig) (*CircuitBreakerHandler, *time.Time, *[]transition) {
	var changes []transition
	cfg.OnStateChange = func(host string, from, to CircuitState) {
		changes = append(changes, transition{host, from, to})
	}
	h := NewCircuitBreakerHandler(cfg)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	return h, &now, &changes
}

func send(t *testing.T, chain *Chain, rawURL string) (*http.Response, error) {
	t.Helper()
	resp, err := chain.RoundTrip(newRequest(t, rawURL))
	if resp != nil {
		resp.Body.Close()
	}
	return resp, err
}

func TestCircuitBreakerHandler_OpensAndRecovers(t *testing.T) {
	failing := true
	rec := &recorder{status: func(int) int {
		if failing {
			return http.StatusBadGateway
		}
		return http.StatusOK
	}}
	h, now, changes := circuitFixture(CircuitBreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute})
	chain := NewChain(rec, h)

	for i := 0; i < 2; i++ {
		if _, err := send(t, chain, "https://graph.example.com/me"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if got := h.State("graph.example.com"); got != CircuitOpen {
		t.Fatalf("state = %s, want open", got)
	}

	_, err := send(t, chain, "https://graph.example.com/me")
	if !errors.HasCode(err, errors.ErrCodeCircuitOpen) {
		t.Fatalf("expected CIRCUIT_OPEN, got %v", err)
	}
	if len(rec.requests) != 2 {
		t.Errorf("open circuit forwarded a request: %d sent", len(rec.requests))
	}

	if _, err := send(t, chain, "https://other.example.com/me"); err != nil {
		t.Errorf("other host must not be affected: %v", err)
	}

	*now = now.Add(time.Minute)
	failing = false
	if _, err := send(t, chain, "https://graph.example.com/me"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got := h.State("graph.example.com"); got != CircuitClosed {
		t.Errorf("state = %s, want closed", got)
	}

	want := []transition{
		{"graph.example.com", CircuitClosed, CircuitOpen},
		{"graph.example.com", CircuitOpen, CircuitHalfOpen},
		{"graph.example.com", CircuitHalfOpen, CircuitClosed},
	}
	if len(*changes) != len(want) {
		t.Fatalf("transitions = %v, want %v", *changes, want)
	}
	for i := range want {
		if (*changes)[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, (*changes)[i], want[i])
		}
	}
}

func TestCircuitBreakerHandler_FailedProbeReopens(t *testing.T) {
	rec := &recorder{status: func(int) int { return http.StatusServiceUnavailable }}
	h, now, _ := circuitFixture(CircuitBreakerConfig{MaxFailures: 1, OpenTimeout: time.Second})
	chain := NewChain(rec, h)

	_, _ = send(t, chain, "https://h/")
	*now = now.Add(time.Second)
	if got := h.State("h"); got != CircuitHalfOpen {
		t.Fatalf("state = %s, want half-open", got)
	}
	_, _ = send(t, chain, "https://h/")
	if got := h.State("h"); got != CircuitOpen {
		t.Errorf("state = %s, want open after failed probe", got)
	}
}

func TestCircuitBreakerHandler_SuccessResetsFailures(t *testing.T) {
	calls := 0
	rec := &recorder{status: func(int) int {
		calls++
		if calls%2 == 1 {
			return http.StatusInternalServerError
		}
		return http.StatusNotFound
	}}
	h, _, changes := circuitFixture(CircuitBreakerConfig{MaxFailures: 2})
	chain := NewChain(rec, h)
	for i := 0; i < 6; i++ {
		if _, err := send(t, chain, "https://h/"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if len(*changes) != 0 {
		t.Errorf("4xx responses must reset the failure count, got transitions %v", *changes)
	}
}

func TestCircuitBreakerHandler_TransportErrorsCount(t *testing.T) {
	boom := errors.Internal(nil)
	transport := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom })
	h, _, _ := circuitFixture(CircuitBreakerConfig{MaxFailures: 1})
	chain := NewChain(transport, h)

	if _, err := send(t, chain, "https://h/"); err != boom {
		t.Fatalf("expected transport error unchanged, got %v", err)
	}
	if got := h.State("h"); got != CircuitOpen {
		t.Errorf("state = %s, want open", got)
	}
	h.Reset()
	if got := h.State("h"); got != CircuitClosed {
		t.Errorf("state after Reset = %s, want closed", got)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}
