// Package telemetry initializes the OpenTelemetry SDK for the service.
// With telemetry disabled the global providers stay noop and nothing
// connects anywhere.
package telemetry
