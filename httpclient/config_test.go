package httpclient

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"

	"github.com/kbukum/kiotahttp/authentication"
	"github.com/kbukum/kiotahttp/component"
	"github.com/kbukum/kiotahttp/config"
	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/httpclient/middleware"
	"github.com/kbukum/kiotahttp/serialization"
	"github.com/kbukum/kiotahttp/testutil"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout || cfg.DialTimeout != defaultDialTimeout || cfg.Name != "kiota-http" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{BaseURL: "https://api.example.com", Timeout: time.Second}},
		{name: "zero timeout", cfg: Config{}, wantErr: true},
		{name: "negative dial timeout", cfg: Config{Timeout: time.Second, DialTimeout: -time.Second}, wantErr: true},
		{name: "initial delay above max", cfg: Config{Timeout: time.Second, Retry: &middleware.RetryHandlerOptions{MaxRetries: 1, InitialDelay: time.Minute, MaxDelay: time.Second}}, wantErr: true},
		{name: "bad base url", cfg: Config{BaseURL: "not a url", Timeout: time.Second}, wantErr: true},
		{name: "too many retries", cfg: Config{Timeout: time.Second, Retry: &middleware.RetryHandlerOptions{MaxRetries: 11}}, wantErr: true},
		{name: "zero rate", cfg: Config{Timeout: time.Second, RateLimit: &middleware.RateLimitConfig{}}, wantErr: true},
		{name: "empty search", cfg: Config{Timeout: time.Second, UrlReplace: middleware.NewUrlReplaceHandlerOptions(true, middleware.ReplacementPair{})}, wantErr: true},
		{name: "tls key without cert", cfg: Config{Timeout: time.Second, TLS: &TLSConfig{KeyFile: "key.pem"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yml")
	yaml := `
base_url: https://graph.example.com/v1.0
timeout: 30s
headers:
  x-tenant: contoso
url_replace:
  enabled: true
  pairs:
    - search: /users/me-token-to-replace
      replacement: /me
retry:
  max_retries: 2
  initial_delay: 1s
  max_delay: 10s
rate_limit:
  rate: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GRAPH_TEST_RETRY_MAX_RETRIES", "4")

	cfg, err := LoadConfig("graph-test", config.WithConfigFile(path))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "graph-test" || cfg.BaseURL != "https://graph.example.com/v1.0" || cfg.Timeout != 30*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.DialTimeout != defaultDialTimeout {
		t.Errorf("dial timeout = %v, want default", cfg.DialTimeout)
	}
	if !cfg.UrlReplace.IsEnabled() || len(cfg.UrlReplace.ReplacementPairs) != 1 || cfg.UrlReplace.ReplacementPairs[0].Replacement != "/me" {
		t.Errorf("url replace = %+v", cfg.UrlReplace)
	}
	if cfg.Retry == nil || cfg.Retry.MaxRetries != 4 || cfg.Retry.MaxDelay != 10*time.Second {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.RateLimit == nil || cfg.RateLimit.Rate != 5 {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Headers["x-tenant"] != "contoso" {
		t.Errorf("headers = %v", cfg.Headers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yml")
	if err := os.WriteFile(path, []byte("retry:\n  max_retries: 11\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig("graph-invalid", config.WithConfigFile(path)); err == nil {
		t.Error("expected validation error")
	}
}

func TestNewTransport(t *testing.T) {
	rt, err := NewTransport(Config{})
	if err != nil {
		t.Fatal(err)
	}
	tr, ok := rt.(*http.Transport)
	if !ok || !tr.ForceAttemptHTTP2 {
		t.Errorf("expected HTTP/2 capable *http.Transport, got %T", rt)
	}

	rt, err = NewTransport(Config{TLS: &TLSConfig{SkipVerify: true, ServerName: "api.internal"}})
	if err != nil {
		t.Fatal(err)
	}
	if tls := rt.(*http.Transport).TLSClientConfig; tls == nil || tls.ServerName != "api.internal" {
		t.Errorf("expected TLS config applied, got %+v", tls)
	}

	rt, err = NewTransport(Config{H2C: true})
	if err != nil {
		t.Fatal(err)
	}
	if h2, ok := rt.(*http2.Transport); !ok || !h2.AllowHTTP {
		t.Errorf("expected cleartext HTTP/2 transport, got %T", rt)
	}
}

func TestHandlers_Order(t *testing.T) {
	cfg := Config{
		Headers:        map[string]string{"X-Tenant": "t1"},
		CircuitBreaker: &middleware.CircuitBreakerConfig{},
		RateLimit:      &middleware.RateLimitConfig{Rate: 10},
		Logging:        true,
		Metrics:        &middleware.MetricsConfig{Namespace: "graph", Registerer: prometheus.NewRegistry()},
	}
	extra := middleware.HandlerFunc(func(p middleware.Pipeline, i int, r *http.Request) (*http.Response, error) {
		return p.Next(r, i)
	})
	hs, err := Handlers(cfg, nil, extra)
	if err != nil {
		t.Fatalf("Handlers: %v", err)
	}
	if len(hs) != 10 {
		t.Fatalf("expected 10 handlers, got %d", len(hs))
	}
	if _, ok := hs[0].(*middleware.UrlReplaceHandler); !ok {
		t.Errorf("expected url replace first, got %T", hs[0])
	}
	if _, ok := hs[5].(*middleware.CircuitBreakerHandler); !ok {
		t.Errorf("expected circuit breaker at 5, got %T", hs[5])
	}
	if _, ok := hs[6].(*middleware.RateLimitHandler); !ok {
		t.Errorf("expected rate limit at 6, got %T", hs[6])
	}
	if _, ok := hs[7].(*middleware.LoggingHandler); !ok {
		t.Errorf("expected logging at 7, got %T", hs[7])
	}
	if _, ok := hs[8].(*middleware.MetricsHandler); !ok {
		t.Errorf("expected metrics at 8, got %T", hs[8])
	}
}

func TestHandlers_MetricsRegistrationConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	clash := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graph", Subsystem: "http_client", Name: "requests_total"})
	reg.MustRegister(clash)

	_, err := Handlers(Config{Metrics: &middleware.MetricsConfig{Namespace: "graph", Registerer: reg}}, nil)
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestNewClient_Metrics(t *testing.T) {
	api := startAPI(t)
	api.On(http.MethodGet, "/x", testutil.Status(http.StatusAccepted))
	reg := prometheus.NewRegistry()

	client, err := NewClient(Config{Metrics: &middleware.MetricsConfig{Namespace: "graph", Registerer: reg}}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	for i := 0; i < 2; i++ {
		resp, err := client.Get(api.URL() + "/x")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		resp.Body.Close()
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var got float64
	for _, f := range families {
		if f.GetName() != "graph_http_client_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			got += m.GetCounter().GetValue()
		}
	}
	if got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestNewClient_DefaultHeadersAndRetry(t *testing.T) {
	api := startAPI(t)
	api.On(http.MethodGet, "/x", testutil.Status(http.StatusServiceUnavailable), testutil.Status(http.StatusOK))

	client, err := NewClient(Config{
		Headers: map[string]string{"X-Tenant": "t1"},
		Retry:   &middleware.RetryHandlerOptions{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond},
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, api.URL()+"/x", nil)
	req.Header.Set("X-Caller", "c")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected retry to succeed, got %d", resp.StatusCode)
	}
	reqs := api.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Header.Get("X-Tenant") != "t1" || reqs[0].Header.Get("X-Caller") != "c" {
		t.Errorf("unexpected headers %v", reqs[0].Header)
	}
	if reqs[1].Header.Get("Retry-Attempt") != "1" {
		t.Errorf("expected Retry-Attempt on resend, got %v", reqs[1].Header)
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "::"}, nil); err == nil {
		t.Error("expected validation error")
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	api := startAPI(t)
	api.On(http.MethodGet, "/users", testutil.JSON(http.StatusOK, `[]`))
	ctx := context.Background()

	c := NewComponent(Config{Name: "graph", BaseURL: api.URL()}, &authentication.AnonymousAuthenticationProvider{}, nil,
		WithParseNodeFactory(jsonParseNodes()))
	if c.Name() != "graph" {
		t.Errorf("Name() = %q", c.Name())
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if d := c.Describe(); d.Type != "http-adapter" || d.Details != api.URL() {
		t.Errorf("unexpected description %+v", d)
	}

	items, err := c.Adapter().SendCollection(ctx, get("/users"), newUser, nil)
	if err != nil {
		t.Fatalf("SendCollection: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty, non-nil collection, got %#v", items)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Adapter() != nil {
		t.Error("expected adapter released")
	}
}

func TestComponent_InRegistry(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewMockAPI()
	adapter := NewComponent(Config{Name: "graph"}, &authentication.AnonymousAuthenticationProvider{}, nil,
		WithParseNodeFactory(jsonParseNodes()))

	reg := component.NewRegistry(nil)
	for _, c := range []component.Component{api, adapter} {
		if err := reg.Register(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	defer reg.StopAll(ctx)

	for _, h := range reg.HealthAll(ctx) {
		if h.Status != component.StatusHealthy {
			t.Errorf("%s is %s", h.Name, h.Status)
		}
	}

	api.On(http.MethodGet, "/users", testutil.JSON(http.StatusOK, `[{"id":"8f841f30-e6e3-439a-a812-ebd369559c36","displayName":"Adele Vance"}]`))
	adapter.Adapter().SetBaseUrl(api.URL())
	items, err := adapter.Adapter().SendCollection(ctx, get("/users"), newUser, nil)
	if err != nil {
		t.Fatalf("SendCollection: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one user, got %d", len(items))
	}
	if u := items[0].(*user); u.id == nil || u.id.String() != "8f841f30-e6e3-439a-a812-ebd369559c36" || *u.displayName != "Adele Vance" {
		t.Errorf("unexpected user %+v", u)
	}

	if err := reg.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if api.URL() != "" || adapter.Adapter() != nil {
		t.Error("expected both components stopped")
	}
}

func TestComponent_StartInvalidConfig(t *testing.T) {
	c := NewComponent(Config{BaseURL: "::"}, &authentication.AnonymousAuthenticationProvider{}, nil)
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected start to fail")
	}
	c = NewComponent(Config{}, nil, nil)
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected missing auth provider to fail")
	}
}

func TestErrorMappingFor(t *testing.T) {
	exact := func(serialization.ParseNode) (serialization.Parsable, error) { return nil, nil }
	mappings := map[string]serialization.ParsableFactory{"404": exact, "5XX": exact}
	tests := []struct {
		status int
		want   bool
	}{
		{404, true},
		{400, false},
		{503, true},
		{302, false},
	}
	for _, tt := range tests {
		if _, ok := ErrorMappingFor(mappings, tt.status); ok != tt.want {
			t.Errorf("ErrorMappingFor(%d) = %v, want %v", tt.status, ok, tt.want)
		}
	}
	if _, ok := ErrorMappingFor(nil, 500); ok {
		t.Error("nil mappings must not match")
	}
}
