package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	abs "github.com/kbukum/kiotahttp/abstractions"
)

// OptionsKey is the request option key for per-request Options.
var OptionsKey = abs.RequestOptionKey{Key: "ObservabilityOptionsKey"}

// Options configures the instrumentation the adapter and the middleware
// stages emit.
type Options struct {
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	// InstrumentationName defaults to DefaultTracerName.
	InstrumentationName string
	// IncludeEUIIAttributes allows attributes that may identify end users,
	// such as the full request URL, on spans.
	IncludeEUIIAttributes bool
	// Metrics, when set, records per-send metrics.
	Metrics *ClientMetrics
}

// GetKey implements abstractions.RequestOption.
func (o *Options) GetKey() abs.RequestOptionKey { return OptionsKey }

// GetTracerInstrumentationName returns the configured or default name.
func (o *Options) GetTracerInstrumentationName() string {
	if o == nil || o.InstrumentationName == "" {
		return DefaultTracerName
	}
	return o.InstrumentationName
}

// GetIncludeEUIIAttributes reports whether user-identifying attributes may
// be recorded.
func (o *Options) GetIncludeEUIIAttributes() bool {
	return o != nil && o.IncludeEUIIAttributes
}

// Tracer returns the tracer for the configured provider and name.
func (o *Options) Tracer() trace.Tracer {
	var tp trace.TracerProvider
	if o != nil {
		tp = o.TracerProvider
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(o.GetTracerInstrumentationName())
}
