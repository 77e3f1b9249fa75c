// Package server hosts the HTTP surface of the scheduling assistant.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/schedsense/schedsense/ai/agent"
	"github.com/schedsense/schedsense/ai/metrics"
	"github.com/schedsense/schedsense/internal/profile"
	"github.com/schedsense/schedsense/internal/version"
	"github.com/schedsense/schedsense/plugin/calendar"
	apiv1 "github.com/schedsense/schedsense/server/router/api/v1"
	"github.com/schedsense/schedsense/store"
)

// Server wraps the echo instance and the services behind it.
type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.SessionStore
}

// NewServer builds the HTTP server and registers all routes.
func NewServer(_ context.Context, prof *profile.Profile, st *store.SessionStore, mgr *agent.Manager, cal calendar.Service, exporter *metrics.PrometheusExporter) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))

	s := &Server{
		e:       e,
		Profile: prof,
		Store:   st,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.String(),
		})
	})
	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	apiService := apiv1.NewAPIV1Service(prof, st, mgr, cal)
	apiService.Register(e)

	return s, nil
}

// Start begins serving. It returns once the listener is up; serve errors are
// logged from the background goroutine.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and stops the session store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	s.Store.Shutdown()
	slog.Info("server shut down")
}
