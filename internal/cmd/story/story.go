// Package story parses story command flags and composes the story server.
package story

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/louisbranch/rentpressure/internal/platform/cmd"
	"github.com/louisbranch/rentpressure/internal/platform/discovery"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	server "github.com/louisbranch/rentpressure/internal/services/story/app"
)

// Config holds story command configuration.
type Config struct {
	HTTPAddr string `env:"RENTPRESSURE_STORY_HTTP_ADDR"`
	GRPCAddr string `env:"RENTPRESSURE_STORY_GRPC_ADDR"`
	DataDir  string `env:"RENTPRESSURE_DATA_DIR"        envDefault:"data"`
	DBPath   string `env:"RENTPRESSURE_DB_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = discovery.ListenAddr(discovery.DefaultHTTPAddr(discovery.ServiceStory))
	}
	if strings.TrimSpace(cfg.GRPCAddr) == "" {
		cfg.GRPCAddr = discovery.ListenAddr(discovery.DefaultGRPCAddr(discovery.ServiceStoryHealth))
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "story HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables it)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the raw and processed datasets")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite dataset store written by the importer; overrides -data-dir")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the story server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStory, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr: cfg.HTTPAddr,
			GRPCAddr: cfg.GRPCAddr,
			DataDir:  cfg.DataDir,
			DBPath:   cfg.DBPath,
			Metrics:  metrics.New(),
		}); err != nil {
			return fmt.Errorf("serve story: %w", err)
		}
		return nil
	})
}
