// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/louisbranch/rentpressure/internal/platform/cmd"
	mcpservice "github.com/louisbranch/rentpressure/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	HTTPAddr  string `env:"RENTPRESSURE_MCP_HTTP_ADDR" envDefault:"localhost:8082"`
	Transport string `env:"RENTPRESSURE_MCP_TRANSPORT" envDefault:"stdio"`
	DataDir   string `env:"RENTPRESSURE_DATA_DIR"      envDefault:"data"`
	DBPath    string `env:"RENTPRESSURE_DB_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the published datasets")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite dataset store path; overrides data-dir")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch mcpservice.TransportKind(cfg.Transport) {
	case mcpservice.TransportStdio, mcpservice.TransportHTTP:
	default:
		return Config{}, fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			Transport: mcpservice.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
			DataDir:   cfg.DataDir,
			DBPath:    cfg.DBPath,
		})
	})
}
