package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/shelfgate/shelfgate/internal/hardware"
	"github.com/shelfgate/shelfgate/internal/session"
	"github.com/shelfgate/shelfgate/internal/store"
	"github.com/shelfgate/shelfgate/internal/web/middleware"
)

// Server is the station's HTTP surface: operation triggers, the status
// poll endpoint, catalog listings and the operator console.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	store        store.Store
	orchestrator *session.Orchestrator
	status       *session.StatusCell
	camera       hardware.Camera
}

// NewServer wires the router, middleware stack and routes.
func NewServer(st store.Store, orch *session.Orchestrator, status *session.StatusCell, camera hardware.Camera, host string, port int) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		store:        st,
		orchestrator: orch,
		status:       status,
		camera:       camera,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the video stream runs for as long as the
		// operator console is open.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
