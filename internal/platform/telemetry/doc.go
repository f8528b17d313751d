// Package telemetry groups the operational observability of the story
// service. Metrics live in telemetry/metrics; traces are configured by
// internal/platform/otel.
package telemetry
