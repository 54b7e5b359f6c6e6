package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/statichive/statichive-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Request path validation, matching the identifiers the coordinator
// namespaces storage by.
var (
	pageIDPattern   = regexp.MustCompile(`^[0-9a-z-]{1,100}$`)
	filenamePattern = regexp.MustCompile(`^[0-9a-z.-]{1,200}$`)
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	pageService   driving.PageService
	mirrorService driving.MirrorService

	// Infrastructure
	db    Pinger // blob store health check
	state Pinger // page-state store health check (optional)

	// refreshSecret, when non-empty, gates forced refresh behind a
	// bearer token
	refreshSecret []byte
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// RefreshSecret enables the refresh token guard when non-empty
	RefreshSecret string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	pageService driving.PageService,
	mirrorService driving.MirrorService,
	db Pinger,
	state Pinger, // can be nil
) *Server {
	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		pageService:   pageService,
		mirrorService: mirrorService,
		db:            db,
		state:         state,
	}
	if cfg.RefreshSecret != "" {
		s.refreshSecret = []byte(cfg.RefreshSecret)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      RequestLogger(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Page endpoints
	s.router.HandleFunc("GET /page/{id}", s.handlePage)
	s.router.HandleFunc("GET /page/{id}/meta", s.handlePageMeta)

	// Mirrored image endpoints
	s.router.HandleFunc("GET /image/{id}/{filename}", s.handleImage)
	s.router.HandleFunc("GET /image/{id}/{filename}/status", s.handleImageStatus)
}

// Handler returns the router for testing
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until an interrupt signal arrives
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
