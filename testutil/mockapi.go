package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/kiotahttp/component"
)

// Reply is one scripted response.
type Reply struct {
	Status  int
	Headers map[string]string
	Body    string
}

// JSON returns a reply with an application/json body.
func JSON(status int, body string) Reply {
	return Reply{Status: status, Headers: map[string]string{"Content-Type": "application/json"}, Body: body}
}

// Status returns a reply with no body.
func Status(status int) Reply {
	return Reply{Status: status}
}

// RecordedRequest is a request received by MockAPI.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// MockAPI is a scripted HTTP server for integration tests.
type MockAPI struct {
	name   string
	engine *gin.Engine

	mu       sync.Mutex
	server   *httptest.Server
	routes   map[string][]Reply
	requests []RecordedRequest
}

var _ TestComponent = (*MockAPI)(nil)

// NewMockAPI creates a stopped mock API. Start it before use.
func NewMockAPI() *MockAPI {
	gin.SetMode(gin.TestMode)
	m := &MockAPI{
		name:   "mock-api",
		engine: gin.New(),
		routes: make(map[string][]Reply),
	}
	m.engine.Use(m.record)
	m.engine.NoRoute(m.reply)
	return m
}

func routeKey(method, path string) string {
	return method + " " + path
}

// On scripts the replies for method and path. Replies are served in order
// and the last one repeats.
func (m *MockAPI) On(method, path string, replies ...Reply) *MockAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[routeKey(method, path)] = append([]Reply(nil), replies...)
	return m
}

// URL returns the server base URL without a trailing slash.
func (m *MockAPI) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return ""
	}
	return m.server.URL
}

// Client returns an *http.Client configured for the server.
func (m *MockAPI) Client() *http.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return http.DefaultClient
	}
	return m.server.Client()
}

// Requests returns a copy of the recorded requests in arrival order.
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// LastRequest returns the most recent request, or false when none arrived.
func (m *MockAPI) LastRequest() (RecordedRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

func (m *MockAPI) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header.Clone(),
		Body:     body,
	})
	m.mu.Unlock()
	c.Next()
}

func (m *MockAPI) reply(c *gin.Context) {
	key := routeKey(c.Request.Method, c.Request.URL.Path)
	m.mu.Lock()
	replies := m.routes[key]
	var r Reply
	ok := len(replies) > 0
	if ok {
		r = replies[0]
		if len(replies) > 1 {
			m.routes[key] = replies[1:]
		}
	}
	m.mu.Unlock()

	if !ok {
		c.String(http.StatusNotImplemented, "no reply scripted for %s", key)
		return
	}
	for k, v := range r.Headers {
		c.Header(k, v)
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	if r.Body == "" {
		c.Status(status)
		return
	}
	c.Data(status, r.Headers["Content-Type"], []byte(r.Body))
}

// Name returns the component name.
func (m *MockAPI) Name() string { return m.name }

// Start serves the API on a loopback port.
func (m *MockAPI) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server != nil {
		return fmt.Errorf("testutil: %s already started", m.name)
	}
	m.server = httptest.NewServer(m.engine)
	return nil
}

// Stop shuts the server down.
func (m *MockAPI) Stop(_ context.Context) error {
	m.mu.Lock()
	server := m.server
	m.server = nil
	m.mu.Unlock()
	if server != nil {
		server.Close()
	}
	return nil
}

// Health reports healthy while the server runs.
func (m *MockAPI) Health(_ context.Context) component.Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return component.Health{Name: m.name, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: m.name, Status: component.StatusHealthy}
}

// Reset clears scripted routes and recorded requests.
func (m *MockAPI) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string][]Reply)
	m.requests = nil
	return nil
}

// Snapshot returns the recorded requests.
func (m *MockAPI) Snapshot(_ context.Context) (interface{}, error) {
	return m.Requests(), nil
}

// Restore replaces the recorded requests with a snapshot.
func (m *MockAPI) Restore(_ context.Context, snapshot interface{}) error {
	requests, ok := snapshot.([]RecordedRequest)
	if !ok {
		return fmt.Errorf("testutil: unexpected snapshot type %T", snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append([]RecordedRequest(nil), requests...)
	return nil
}
