package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures client-side rate limiting.
type RateLimitConfig struct {
	// Rate is the number of requests allowed per second.
	Rate float64 `mapstructure:"rate" json:"rate" validate:"gt=0"`
	// Burst is the maximum burst size. Defaults to Rate rounded up.
	Burst int `mapstructure:"burst" json:"burst" validate:"gte=0"`
}

// RateLimitHandler delays requests to stay within a token bucket. Waiting
// honors the request context.
type RateLimitHandler struct {
	limiter *rate.Limiter
}

// NewRateLimitHandler creates a handler from cfg.
func NewRateLimitHandler(cfg RateLimitConfig) *RateLimitHandler {
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.Rate)
		if float64(burst) < cfg.Rate {
			burst++
		}
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimitHandler{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), burst)}
}

// Limiter returns the underlying limiter.
func (h *RateLimitHandler) Limiter() *rate.Limiter {
	return h.limiter
}

// Intercept waits for a token and continues the pipeline.
func (h *RateLimitHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	if err := h.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return pipeline.Next(req, middlewareIndex)
}
