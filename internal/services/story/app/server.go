// Package server hosts the story HTTP process: the page shell, dataset
// exports, the /ws story session transport and a gRPC health endpoint.
//
// Every WebSocket connection gets its own event loop and story router, so
// sessions share only the dataset cache.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/rentpressure/internal/platform/grpc"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/storage"
)

// HealthService is the gRPC health service name flipped to SERVING once
// the city statistics load.
const HealthService = "rentpressure.story"

// Config defines the inputs for the story process. DBPath selects the
// SQLite dataset store written by the importer; otherwise datasets are read
// from DataDir.
type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	DataDir           string
	DBPath            string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Metrics           *metrics.Metrics
}

// Server hosts the story HTTP and health processes.
type Server struct {
	httpAddr        string
	grpcAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	health          *platformgrpc.HealthServer
	cache           *dataset.Cache
	closeSource     func() error
}

// NewServer builds a configured story server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	source, closeSource, err := storage.Open(config.DataDir, config.DBPath)
	if err != nil {
		return nil, err
	}

	cache := dataset.NewCache(source, dataset.WithMetrics(config.Metrics))
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(cache, config.Metrics),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	var health *platformgrpc.HealthServer
	if strings.TrimSpace(config.GRPCAddr) != "" {
		health = platformgrpc.NewHealthServer()
		health.SetServing("", false)
		health.SetServing(HealthService, false)
	}

	return &Server{
		httpAddr:        httpAddr,
		grpcAddr:        strings.TrimSpace(config.GRPCAddr),
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		health:          health,
		cache:           cache,
		closeSource:     closeSource,
	}, nil
}

// Run creates and serves a story server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init story server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve story: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server, and the health server when
// configured, until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("story server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 2)
	if s.health != nil {
		lis, err := net.Listen("tcp", s.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen health: %w", err)
		}
		log.Printf("story health listening on %s", lis.Addr())
		go func() {
			serveErr <- s.health.Serve(ctx, lis)
		}()
		go s.warm(ctx)
	}

	log.Printf("story server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// warm loads the city statistics once and reports SERVING when they are
// available. Every other dataset loads lazily per session.
func (s *Server) warm(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, timeouts.DatasetLoad)
	defer cancel()
	cities, err := s.cache.Stats(loadCtx)
	if err != nil {
		log.Printf("story: city statistics unavailable, health stays NOT_SERVING: %v", err)
		return
	}
	log.Printf("story: loaded %d cities", len(cities))
	s.health.SetServing("", true)
	s.health.SetServing(HealthService, true)
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.closeSource != nil {
		if err := s.closeSource(); err != nil {
			log.Printf("close dataset store: %v", err)
		}
	}
}
