// Package tracing sets up OpenTelemetry tracing for cycling passes.
//
// Each pass is one trace: a root span per data source ("cycle.perf",
// "cycle.jobs") with a child span per removal strategy and one for the
// leftover cleanup. Spans are exported over OTLP gRPC when
// telemetry.tracing.enabled is set; otherwise New returns a noop tracer.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(version))
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing
