package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/berfenger/v2ca/internal/core/service"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// HTTPService serves a handler on a TCP port under the service lifecycle.
// A fresh http.Server is built on every start so the service can be restarted.
type HTTPService struct {
	*service.GuardedService
	port    uint
	handler http.Handler
	logger  *zap.Logger

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

func NewHTTPService(name string, port uint, handler http.Handler, logger *zap.Logger) *HTTPService {
	s := &HTTPService{
		port:    port,
		handler: handler,
		logger:  logger.With(zap.String("service", name)),
	}
	s.GuardedService = service.Guard(name, s, logger)
	return s
}

func (s *HTTPService) DoStart(_ context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      s.handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

func (s *HTTPService) DoStop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.addr = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("server forced to shutdown", zap.Error(err))
		return srv.Close()
	}
	return nil
}

// Addr is the bound listener address, nil while stopped.
func (s *HTTPService) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *HTTPService) Handler() http.Handler {
	return s.handler
}
