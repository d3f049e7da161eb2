package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/seichilog/seichilog/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener lifecycle around the router.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

func NewServer(addr string, handler http.Handler, logger logging.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until the listener fails. A graceful Shutdown is reported as
// a clean exit, not an error.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by shutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
