package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/httpclient/middleware"
	"github.com/kbukum/kiotahttp/logger"
)

// NewTransport builds the terminal transport for cfg. H2C selects a
// cleartext HTTP/2 transport; otherwise a clone of http.DefaultTransport is
// used with cfg.TLS applied.
func NewTransport(cfg Config) (http.RoundTripper, error) {
	cfg.ApplyDefaults()
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	if cfg.H2C {
		return &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
		}, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.ForceAttemptHTTP2 = true

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}
	return transport, nil
}

// Handlers returns the middleware pipeline described by cfg, outermost
// first: the default handlers, then the optional stages enabled in cfg in
// field order, then extra. It fails only when the metrics collectors cannot
// be registered.
func Handlers(cfg Config, log *logger.Logger, extra ...middleware.Handler) ([]middleware.Handler, error) {
	handlers := middleware.DefaultHandlers(middleware.DefaultOptions{
		UrlReplace: cfg.UrlReplace,
		UserAgent:  cfg.UserAgent,
		Retry:      cfg.Retry,
	})
	if len(cfg.Headers) > 0 {
		handlers = append(handlers, defaultHeadersHandler(cfg.Headers))
	}
	if cfg.CircuitBreaker != nil {
		handlers = append(handlers, middleware.NewCircuitBreakerHandler(circuitBreakerConfig(*cfg.CircuitBreaker, log)))
	}
	if cfg.RateLimit != nil {
		handlers = append(handlers, middleware.NewRateLimitHandler(*cfg.RateLimit))
	}
	if cfg.Logging {
		handlers = append(handlers, middleware.NewLoggingHandler(log))
	}
	if cfg.Metrics != nil {
		metrics, err := middleware.NewMetricsHandler(cfg.Metrics.Namespace, cfg.Metrics.Registerer)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInternal, "failed to register http client metrics").WithCause(err)
		}
		handlers = append(handlers, metrics)
	}
	return append(handlers, extra...), nil
}

// circuitBreakerConfig logs state changes unless cfg has its own hook.
func circuitBreakerConfig(cfg middleware.CircuitBreakerConfig, log *logger.Logger) middleware.CircuitBreakerConfig {
	if cfg.OnStateChange != nil {
		return cfg
	}
	if log == nil {
		log = logger.Get("circuit-breaker")
	} else {
		log = log.WithComponent("circuit-breaker")
	}
	cfg.OnStateChange = func(host string, from, to middleware.CircuitState) {
		log.Warn("circuit breaker state changed", map[string]interface{}{
			"host": host, "from": from.String(), "to": to.String(),
		})
	}
	return cfg
}

// NewClient builds an *http.Client whose transport is the middleware chain
// for cfg.
func NewClient(cfg Config, log *logger.Logger, extra ...middleware.Handler) (*http.Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	handlers, err := Handlers(cfg, log, extra...)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: middleware.NewChain(transport, handlers...),
		Timeout:   cfg.Timeout,
	}, nil
}

// NewDefaultClient returns a client with the default pipeline over
// http.DefaultTransport and no timeout.
func NewDefaultClient() *http.Client {
	return &http.Client{
		Transport: middleware.NewChain(nil, middleware.DefaultHandlers(middleware.DefaultOptions{})...),
	}
}

// defaultHeadersHandler sets headers the request does not already carry.
func defaultHeadersHandler(headers map[string]string) middleware.Handler {
	return middleware.HandlerFunc(func(pipeline middleware.Pipeline, idx int, req *http.Request) (*http.Response, error) {
		var out *http.Request
		for k, v := range headers {
			if req.Header.Get(k) != "" {
				continue
			}
			if out == nil {
				out = req.Clone(req.Context())
			}
			out.Header.Set(k, v)
		}
		if out == nil {
			out = req
		}
		return pipeline.Next(out, idx)
	})
}
