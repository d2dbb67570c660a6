package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

const defaultShutdownTimeout = 30 * time.Second

// GracefulServer wraps Echo server with graceful shutdown capabilities
type GracefulServer struct {
	echo      *echo.Echo
	logger    *logger.ZapLogger
	addr      string
	timeout   time.Duration
	shutdowns *ShutdownManager
}

// NewGracefulServer creates a new server with graceful shutdown. Components
// registered on shutdowns are stopped after the HTTP server drains.
func NewGracefulServer(e *echo.Echo, zapLogger *logger.ZapLogger, cfg models.ServerConfig, shutdowns *ShutdownManager) *GracefulServer {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	if cfg.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		e.Server.WriteTimeout = cfg.WriteTimeout
	}
	return &GracefulServer{
		echo:      e,
		logger:    zapLogger,
		addr:      fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		timeout:   timeout,
		shutdowns: shutdowns,
	}
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully
func (s *GracefulServer) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", logger.String("address", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		s.logger.Error("HTTP server stopped unexpectedly", logger.Err(err))
		_ = s.Shutdown()
		return err
	}

	return s.Shutdown()
}

// Shutdown drains the HTTP server and stops registered components
func (s *GracefulServer) Shutdown() error {
	s.logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.echo.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Server forced to shutdown", logger.Err(err))
	}
	if s.shutdowns != nil {
		s.shutdowns.Shutdown(ctx)
	}

	s.logger.Info("Server shutdown completed")
	return err
}

// ShutdownManager collects cleanup functions of long lived components
type ShutdownManager struct {
	logger    *logger.ZapLogger
	mu        sync.Mutex
	names     []string
	functions []func(context.Context) error
}

// NewShutdownManager creates a new shutdown manager
func NewShutdownManager(zapLogger *logger.ZapLogger) *ShutdownManager {
	return &ShutdownManager{logger: zapLogger}
}

// Register adds a cleanup function. Functions run in reverse order of
// registration, so dependencies registered first are released last.
func (sm *ShutdownManager) Register(name string, fn func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.names = append(sm.names, name)
	sm.functions = append(sm.functions, fn)
}

// Shutdown executes all registered cleanup functions. A failing component
// does not stop the others.
func (sm *ShutdownManager) Shutdown(ctx context.Context) {
	sm.mu.Lock()
	names, functions := sm.names, sm.functions
	sm.names, sm.functions = nil, nil
	sm.mu.Unlock()

	sm.logger.Info("Starting graceful shutdown of components", logger.Int("components", len(functions)))

	for i := len(functions) - 1; i >= 0; i-- {
		if err := functions[i](ctx); err != nil {
			sm.logger.Error("Error during component shutdown",
				logger.String("component", names[i]),
				logger.Err(err))
		}
	}

	sm.logger.Info("All components shutdown completed")
}
