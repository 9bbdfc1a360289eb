package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/core/provider"
	"github.com/berfenger/v2ca/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type StatusProvider = port.Provider[*domain.RawDeviceStatus]

type RestOptions struct {
	Port    uint
	HttpLog bool
	// RateLimit is the allowed requests per second per client, 0 disables it.
	RateLimit      float64
	RateLimitBurst int
}

// RestService emulates the EM1 status RPC of a Shelly Pro EM for the grid
// (id 0) and solar (id 1) channels.
type RestService struct {
	*HTTPService
	grid   StatusProvider
	solar  StatusProvider
	logger *zap.Logger
}

func NewRestService(opts RestOptions, grid, solar StatusProvider, logger *zap.Logger) *RestService {
	s := &RestService{
		grid:   grid,
		solar:  solar,
		logger: logger,
	}
	s.HTTPService = NewHTTPService("rest", opts.Port, s.registerRoutes(opts), logger)
	return s
}

func (s *RestService) registerRoutes(opts RestOptions) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if opts.HttpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	if opts.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(opts.RateLimit),
				Burst:     opts.RateLimitBurst,
				ExpiresIn: 3 * time.Minute,
			},
		)))
	}

	e.GET("/health", s.HealthHandler)
	e.GET("/rpc/EM1.GetStatus", s.GetStatusHandler)
	e.POST("/expectaction", s.ExpectActionHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func (s *RestService) providerById(id int) StatusProvider {
	energyType, err := domain.IDToEnergyType(id)
	if err != nil {
		return nil
	}
	if energyType == domain.EnergyTypeSolar {
		return s.solar
	}
	return s.grid
}

func (s *RestService) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *RestService) GetStatusHandler(c echo.Context) error {
	rawId := c.QueryParam("id")
	if rawId == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "querystring must have required property 'id'")
	}
	id, err := strconv.Atoi(rawId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "querystring/id must be integer")
	}
	s.logger.Debug("status request", zap.Int("id", id))

	p := s.providerById(id)
	if p == nil {
		return c.JSON(http.StatusBadRequest, unknownIdResponse(id))
	}
	status, err := p.Get(c.Request().Context())
	if err != nil {
		s.logger.Warn("status provider failed", zap.Int("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, internalErrorResponse(err))
	}
	if status == nil {
		return c.JSON(http.StatusNotFound, unknownIdResponse(id))
	}
	return c.JSON(http.StatusOK, status)
}

// expectation shadows id and calibration of the embedded status to detect
// whether they were sent.
type expectation struct {
	domain.RawDeviceStatus
	Id          *int    `json:"id"`
	Calibration *string `json:"calibration"`
}

func (s *RestService) ExpectActionHandler(c echo.Context) error {
	var body expectation
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be a JSON object")
	}
	if body.Calibration == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must have required property 'calibration'")
	}
	if body.Id == nil {
		return c.JSON(http.StatusBadRequest, unknownIdResponse("undefined"))
	}
	id := *body.Id

	p := s.providerById(id)
	if p == nil {
		return c.JSON(http.StatusBadRequest, unknownIdResponse(id))
	}
	mock, ok := p.(*provider.FixedValueProvider[domain.RawDeviceStatus])
	if !ok {
		return c.JSON(http.StatusBadRequest, illegalModeResponse(id, "mock"))
	}

	status := body.RawDeviceStatus
	status.Id = id
	status.Calibration = *body.Calibration
	mock.Set(&status)
	s.logger.Info("expectation set", zap.Int("id", id))
	return c.NoContent(http.StatusOK)
}
