package server

import (
	"net/http"

	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewStatusServer exposes the health of the MQTT surface and the process metrics.
func NewStatusServer(port uint, httpLog bool, health port.HealthReporter, logger *zap.Logger) *HTTPService {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())

	e.GET("/healthcheck", func(c echo.Context) error {
		if health.Healthy(c.Request().Context()) {
			return c.String(http.StatusOK, "health_check: OK")
		}
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return NewHTTPService("status", port, e, logger)
}
