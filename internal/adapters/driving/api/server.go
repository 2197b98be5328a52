package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// shutdownTimeout bounds how long in-flight requests may finish.
const shutdownTimeout = 30 * time.Second

// Config configures the HTTP server.
type Config struct {
	CORSOrigins []string

	// MaxUploadBytes caps upload bodies. Zero uses domain.DefaultMaxUploadMB.
	MaxUploadBytes int64

	// DumpLimit is the default for /get_vectors without a limit.
	DumpLimit int
}

// Server is the HTTP API.
type Server struct {
	ports   *Ports
	cfg     Config
	handler http.Handler
}

// NewServer creates a server for the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = int64(domain.DefaultMaxUploadMB) << 20
	}

	s := &Server{ports: ports, cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload_pdf", s.handleUpload)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /analysis", s.handleAnalysis)
	mux.HandleFunc("POST /ask_question", s.handleAskQuestion)
	mux.HandleFunc("GET /get_vectors", s.handleGetVectors)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /documents/{name}", s.handleDocument)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.handler = withRequestID(withRecovery(withCORS(cfg.CORSOrigins, mux)))
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	logger.Info("API listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
