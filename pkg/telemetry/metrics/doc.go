// Package metrics exports Prometheus metrics for cycling passes.
//
// A Collector registers three groups of metrics on its own registry:
// strategy metrics (rows and chunks deleted per removal strategy, runs by
// outcome, durations), run metrics (passes per data source, duration,
// last completion time, runtime budget hits) and leftover metrics (jobs,
// ancillary rows, signatures, notifications and alert summaries removed).
//
// The schedule command serves them over HTTP with Handler. One-shot cycle
// runs write them to a textfile with WriteTextfile when a textfile path is
// configured.
package metrics
