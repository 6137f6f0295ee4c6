// Package metrics collects Prometheus metrics for the orchestration core,
// the model router, the run queue, and the HTTP front end.
package metrics
