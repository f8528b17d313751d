// Package timeouts defines shared timeout constants used across binaries.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second

// DatasetLoad caps a single dataset load from disk or SQLite.
const DatasetLoad = 30 * time.Second

// HealthCheck caps one gRPC health check.
const HealthCheck = time.Second
