// Package observability provides OpenTelemetry tracing and metrics
// integration for the request adapter.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
// Adapter instrumentation:
//
//	adapter, err := httpclient.NewRequestAdapter(auth,
//	    httpclient.WithObservabilityOptions(observability.Options{TracerProvider: tp}))
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter("my-service"))
package observability
