// Package telemetry initializes OpenTelemetry metrics and tracing.
package telemetry
