// Package server exposes the endpoint resolver over a small local HTTP API so
// other processes on the device can inspect and switch the backend origin.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrilink/pkg/log"
	"agrilink/pkg/netconfig"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultShutdownTimeout = 10 * time.Second

// Server is the local control server.
type Server struct {
	resolver                *netconfig.Resolver
	gracefulShutdownTimeout time.Duration
	echo                    *echo.Echo
}

// NewServer creates a control server for resolver with its routes registered.
func NewServer(resolver *netconfig.Resolver, gracefulShutdownTimeout time.Duration) *Server {
	if gracefulShutdownTimeout <= 0 {
		gracefulShutdownTimeout = defaultShutdownTimeout
	}

	srv := &Server{
		resolver:                resolver,
		gracefulShutdownTimeout: gracefulShutdownTimeout,
		echo:                    echo.New(),
	}
	srv.setupRoutes()
	return srv
}

// Handler returns the HTTP handler serving the control API.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting control server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	return s.Shutdown()
}

// Shutdown stops the server, waiting up to the graceful shutdown timeout.
func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down control server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulShutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Debug()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Control request")
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	s.echo.GET("/healthz", s.HealthHandler)
	s.echo.GET("/network/status", s.StatusHandler)
	s.echo.GET("/network/probe", s.ProbeHandler)
	s.echo.GET("/network/best", s.BestHandler)
	s.echo.POST("/network/best/apply", s.ApplyBestHandler)
	s.echo.GET("/network/mode", s.GetModeHandler)
	s.echo.PUT("/network/mode", s.SetModeHandler)
}
