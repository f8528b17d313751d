// Package domain defines the read-only MCP tools and resources that let an
// assistant inspect the story datasets: cities, time-lapse snapshots, the
// housing-pressure gauge, affordability rankings and step classification.
package domain
