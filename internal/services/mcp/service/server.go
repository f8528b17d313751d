package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/mcp/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/storage"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "rentpressure-story"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string
	DataDir   string
	DBPath    string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	closeFn   func() error
}

// New builds a server whose tools read from data.
func New(data domain.Data) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	register(mcpServer, data, catalog.Default(), i18n.Default())
	return &Server{mcpServer: mcpServer}
}

func register(mcpServer *mcp.Server, data domain.Data, c *catalog.Catalog, bundle *i18n.Bundle) {
	mcp.AddTool(mcpServer, domain.CityListTool(), domain.CityListHandler(data, c))
	mcp.AddTool(mcpServer, domain.TimelineSnapshotTool(), domain.TimelineSnapshotHandler(data, c))
	mcp.AddTool(mcpServer, domain.GaugeTool(), domain.GaugeHandler(data, c, bundle))
	mcp.AddTool(mcpServer, domain.AffordabilityTool(), domain.AffordabilityHandler(data))
	mcp.AddTool(mcpServer, domain.StepTool(), domain.StepHandler(c))
	mcpServer.AddResource(domain.CityListResource(), domain.CityListResourceHandler(data, c))
}

// Open builds a server over the configured dataset location.
func Open(cfg Config) (*Server, error) {
	source, closeFn, err := storage.Open(cfg.DataDir, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	server := New(dataset.NewCache(source, dataset.WithLogf(log.Printf)))
	server.closeFn = closeFn
	return server, nil
}

// Run is the service entrypoint for MCP and blocks until context
// cancellation.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	server, err := Open(cfg)
	if err != nil {
		return err
	}
	if cfg.Transport == TransportHTTP {
		return server.serveHTTP(ctx, cfg.HTTPAddr)
	}
	return server.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the dataset source held by the server.
func (s *Server) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	err := s.closeFn()
	s.closeFn = nil
	return err
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if closeErr := s.Close(); closeErr != nil {
		if err == nil {
			return fmt.Errorf("close dataset store: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close dataset store: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// serveHTTP serves the streamable HTTP transport until the context ends.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("close dataset store: %v", err)
		}
	}()

	// Default to localhost-only binding.
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:8082"
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("mcp listening on %s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown mcp http: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve mcp http: %w", err)
	}
}
