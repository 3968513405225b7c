package middleware

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures the Prometheus collectors of MetricsHandler.
type MetricsConfig struct {
	// Namespace prefixes the metric names.
	Namespace string `yaml:"namespace" mapstructure:"namespace" json:"namespace"`
	// Registerer receives the collectors. Nil uses the default registerer.
	Registerer prometheus.Registerer `yaml:"-" mapstructure:"-" json:"-"`
}

// MetricsHandler records request counts and latencies per method and status
// code. Transport failures are counted with code "error".
type MetricsHandler struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsHandler registers the collectors with reg. A nil reg uses the
// default registerer. Collectors already registered under the same names
// are reused.
func NewMetricsHandler(namespace string, reg prometheus.Registerer) (*MetricsHandler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "requests_total",
		Help:      "Outgoing HTTP requests by method and status code.",
	}, []string{"method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "request_duration_seconds",
		Help:      "Outgoing HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})

	var err error
	if requests, err = registerCounter(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = registerHistogram(reg, duration); err != nil {
		return nil, err
	}
	return &MetricsHandler{requests: requests, duration: duration}, nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return h, nil
}

// Requests returns the request counter.
func (h *MetricsHandler) Requests() *prometheus.CounterVec { return h.requests }

// Duration returns the latency histogram.
func (h *MetricsHandler) Duration() *prometheus.HistogramVec { return h.duration }

// Intercept records the exchange.
func (h *MetricsHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := pipeline.Next(req, middlewareIndex)
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	h.requests.WithLabelValues(req.Method, code).Inc()
	h.duration.WithLabelValues(req.Method, code).Observe(time.Since(start).Seconds())
	return resp, err
}
