package component

import "context"

// HealthStatus is the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is a component's health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a long-lived piece of client infrastructure, such as a
// request adapter with its connection pool, that is started and stopped
// with its owner.
type Component interface {
	// Name returns the unique registration name.
	Name() string

	// Start acquires the component's resources.
	Start(ctx context.Context) error

	// Stop releases them. It must be safe to call on a stopped component.
	Stop(ctx context.Context) error

	// Health reports the current state.
	Health(ctx context.Context) Health
}

// Description summarizes a component for startup logs.
type Description struct {
	// Name defaults to the component's Name().
	Name string
	// Type categorizes the component, e.g. "http-adapter".
	Type string
	// Details is a one-line configuration summary.
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is implemented by components that can describe themselves.
type Describable interface {
	Describe() Description
}
