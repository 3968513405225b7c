// Package component defines the lifecycle contract for long-lived client
// infrastructure.
//
// A Component is started before use, stopped on shutdown and reports its
// health. The request adapter and the test API server both implement it,
// and a Registry manages a set of them:
//
//	reg := component.NewRegistry(log)
//	_ = reg.Register(adapterComponent)
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(ctx)
package component
