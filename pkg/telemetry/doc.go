// Package telemetry groups the observability packages used by datacycle.
//
//   - logging: slog setup with credential redaction and per-run fields
//   - metrics: Prometheus counters and histograms for cycling passes
//   - tracing: OpenTelemetry spans for passes and strategies
//   - health: liveness and readiness endpoints of the schedule command
//
// Each package works standalone; a disabled metrics collector or tracer
// turns every call into a no-op.
package telemetry
