// Package httpapi exposes the authentication core and the application
// records service over HTTP, and owns the mapping from domain errors to
// response status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dberezin/ipotrack/internal/logging"
	"github.com/dberezin/ipotrack/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address      string
	logger       logging.Logger
	users        *services.UserService
	applications *services.ApplicationService
	jwtSecret    []byte
}

func NewServer(address string, l logging.Logger, us *services.UserService, as *services.ApplicationService, secretKey string) *Server {
	return &Server{
		address:      address,
		logger:       l.With("module", "httpapi"),
		users:        us,
		applications: as,
		jwtSecret:    []byte(secretKey),
	}
}

// Handler assembles the route table with its middleware chain. Split out
// from Run so tests can drive the full stack through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/auth/me", s.requireAuth(http.HandlerFunc(s.handleMe)))

	mux.Handle("POST /api/applications", s.requireAuth(http.HandlerFunc(s.handleCreateApplication)))
	mux.Handle("GET /api/applications", s.requireAuth(http.HandlerFunc(s.handleListApplications)))
	mux.Handle("POST /api/applications/{id}/document", s.requireAuth(http.HandlerFunc(s.handleDocumentUpload)))
	mux.Handle("GET /api/applications/{id}/document", s.requireAuth(http.HandlerFunc(s.handleDocumentDownload)))

	return s.withRequestID(s.withRecovery(s.withLogging(mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
