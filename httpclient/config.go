package httpclient

import (
	"time"

	"github.com/kbukum/kiotahttp/config"
	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/httpclient/middleware"
	"github.com/kbukum/kiotahttp/validation"
)

const (
	defaultTimeout     = 100 * time.Second
	defaultDialTimeout = 10 * time.Second
)

// Config configures the adapter's HTTP client and middleware pipeline.
type Config struct {
	// Name identifies the adapter as a component. Defaults to "kiota-http".
	Name string `yaml:"name" mapstructure:"name" json:"name"`

	// BaseURL fills the {+baseurl} template variable of requests that do not
	// carry their own.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url" validate:"omitempty,url"`

	// Timeout bounds a whole send including retries. Defaults to 100s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`

	// DialTimeout bounds connection setup. Defaults to 10s.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" json:"dial_timeout"`

	// H2C sends cleartext HTTP/2 with prior knowledge instead of HTTP/1.1.
	H2C bool `yaml:"h2c" mapstructure:"h2c" json:"h2c"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls" json:"tls"`

	// Headers are added to every request that does not already set them.
	Headers map[string]string `yaml:"headers" mapstructure:"headers" json:"headers"`

	// UrlReplace configures the default URL segment replacement.
	UrlReplace *middleware.UrlReplaceHandlerOptions `yaml:"url_replace" mapstructure:"url_replace" json:"url_replace"`

	// UserAgent configures the product token. Nil uses the module default.
	UserAgent *middleware.UserAgentHandlerOptions `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent"`

	// Retry enables the retry stage. Nil disables it.
	Retry *middleware.RetryHandlerOptions `yaml:"retry" mapstructure:"retry" json:"retry"`

	// CircuitBreaker enables per-host fail-fast. Nil disables it.
	CircuitBreaker *middleware.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker" json:"circuit_breaker"`

	// RateLimit enables client-side rate limiting. Nil disables it.
	RateLimit *middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit" json:"rate_limit"`

	// Logging adds a structured log line per exchange.
	Logging bool `yaml:"logging" mapstructure:"logging" json:"logging"`

	// Metrics exports Prometheus request counts and latencies. Nil disables it.
	Metrics *middleware.MetricsConfig `yaml:"metrics" mapstructure:"metrics" json:"metrics"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "kiota-http"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	v := validation.New().
		Custom(c.Timeout > 0, "timeout", "must be positive").
		Custom(c.DialTimeout >= 0, "dial_timeout", "must not be negative")
	if c.Retry != nil && c.Retry.MaxDelay > 0 {
		v.Custom(c.Retry.InitialDelay <= c.Retry.MaxDelay, "retry.initial_delay", "must not exceed max_delay")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return errors.InvalidInput("tls", err.Error()).WithCause(err)
		}
	}
	return nil
}

// LoadConfig reads the configuration for name from its YAML file, .env file
// and prefixed environment variables. The result has defaults applied and
// is validated.
func LoadConfig(name string, opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{Name: name}
	if err := config.Load(name, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
