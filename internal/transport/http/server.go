// Package http provides the HTTP server implementation for the relay.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
	"github.com/ANAVHEOBA/softwaresystem/internal/metrics"
	"github.com/ANAVHEOBA/softwaresystem/internal/service"
	"github.com/ANAVHEOBA/softwaresystem/internal/transport/http/llmproxy"
	v1 "github.com/ANAVHEOBA/softwaresystem/internal/transport/http/v1"
)

// healthTimeout bounds the store ping done by /health.
const healthTimeout = 2 * time.Second

// NewServer creates and configures the HTTP server.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(observeDuration)

	// Handlers
	v1Handler := v1.NewHandler(svc)
	llmHandler := llmproxy.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	llmHandler.RegisterRoutes(e)

	e.GET("/health", health(svc))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}

// observeDuration records every request in metrics.HTTPRequestDuration,
// labelled by route pattern so ids do not explode cardinality.
func observeDuration(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// health reports liveness and whether the document store answers.
func health(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			logging.FromContext(ctx).Warn("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "healthy",
			"provider": svc.Provider(),
		})
	}
}
