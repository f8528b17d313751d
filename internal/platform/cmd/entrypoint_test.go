package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	HTTPAddr string `env:"CMD_TEST_HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	DataDir  string `env:"CMD_TEST_DATA_DIR" envDefault:"data"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_HTTP_ADDR", "env:9000")
	t.Setenv("CMD_TEST_DATA_DIR", "env-data")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data dir")

	if err := ParseArgs(fs, []string{"-http-addr", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.HTTPAddr != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfg.HTTPAddr)
	}
	if cfg.DataDir != "env-data" {
		t.Fatalf("expected env data dir, got %q", cfg.DataDir)
	}
}

func TestParseConfigFromArgsKeepsEnvWhenFlagAbsent(t *testing.T) {
	t.Setenv("CMD_TEST_DATA_DIR", "configarg-data")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "http-addr", "", "address")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-http-addr", "flag:9002"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.HTTPAddr != "flag:9002" {
		t.Fatalf("expected parsed flag address, got %q", cfg.HTTPAddr)
	}
	if cfg.DataDir != "configarg-data" {
		t.Fatalf("expected env data dir, got %q", cfg.DataDir)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	var cfg *testConfig
	if err := ParseConfig(cfg); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceStory, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("RENTPRESSURE_OTEL_ENDPOINT", "")
	want := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServiceImporter, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
