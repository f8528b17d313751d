// Package metrics exposes Prometheus counters for story sessions: accepted
// steps by region, transition effects by kind, time-lapse rebuild paths,
// dataset loads and HTTP requests.
//
// All recording methods are nil-safe so components can run without metrics
// in tests.
package metrics
