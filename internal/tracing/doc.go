// Package tracing sets up OpenTelemetry tracing for capability invocations
// and plugin lifecycle operations. When disabled it hands out a no-op tracer,
// so callers never need to check whether tracing is on.
package tracing
