// Package main imports story datasets into the SQLite dataset store.
package main

import (
	"context"
	"flag"
	"os"

	importercmd "github.com/louisbranch/rentpressure/internal/cmd/importer"
	entrypoint "github.com/louisbranch/rentpressure/internal/platform/cmd"
	"github.com/louisbranch/rentpressure/internal/platform/config"
)

func main() {
	cfg, err := importercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = entrypoint.RunWithTelemetry(context.Background(), entrypoint.ServiceImporter, func(ctx context.Context) error {
		return importercmd.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
