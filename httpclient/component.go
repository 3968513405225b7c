package httpclient

import (
	"context"
	"sync"

	"github.com/kbukum/kiotahttp/authentication"
	"github.com/kbukum/kiotahttp/component"
	"github.com/kbukum/kiotahttp/httpclient/middleware"
	"github.com/kbukum/kiotahttp/logger"
)

// Component wraps a RequestAdapter with lifecycle management.
// Use this when the adapter is part of a managed application.
type Component struct {
	config   Config
	auth     authentication.AuthenticationProvider
	opts     []Option
	handlers []middleware.Handler
	log      *logger.Logger

	mu      sync.RWMutex
	adapter *RequestAdapter
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new adapter component.
// The adapter is created lazily in Start().
func NewComponent(cfg Config, auth authentication.AuthenticationProvider, log *logger.Logger, opts ...Option) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{config: cfg, auth: auth, opts: opts, log: log}
}

// WithHandlers appends extra middleware after the configured pipeline.
func (c *Component) WithHandlers(handlers ...middleware.Handler) *Component {
	c.handlers = append(c.handlers, handlers...)
	return c
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.config.Name
}

// Start builds the HTTP client and the adapter.
func (c *Component) Start(_ context.Context) error {
	client, err := NewClient(c.config, c.log, c.handlers...)
	if err != nil {
		return err
	}
	opts := append([]Option{
		WithHTTPClient(client),
		WithBaseURL(c.config.BaseURL),
		WithLogger(c.log),
	}, c.opts...)
	a, err := NewRequestAdapter(c.auth, opts...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.adapter = a
	c.mu.Unlock()
	c.log.Info("request adapter started", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldURL, c.config.BaseURL))
	return nil
}

// Stop closes idle connections and releases the adapter.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adapter != nil {
		c.adapter.HTTPClient().CloseIdleConnections()
		c.adapter = nil
	}
	return nil
}

// Health reports healthy once started.
func (c *Component) Health(_ context.Context) component.Health {
	status := component.StatusHealthy
	message := ""
	if c.Adapter() == nil {
		status = component.StatusUnhealthy
		message = "not started"
	}
	return component.Health{
		Name:    c.Name(),
		Status:  status,
		Message: message,
	}
}

// Describe returns component description for the bootstrap summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-adapter",
		Details: c.config.BaseURL,
	}
}

// Adapter returns the underlying adapter. Must be called after Start().
func (c *Component) Adapter() *RequestAdapter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adapter
}
