package api

import (
	"context"
	"net/http"
	"time"

	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// availableEndpoints is listed on unknown routes.
var availableEndpoints = []string{
	"/",
	"/api/health",
	"/api/news",
	"/api/news/all",
	"/api/news/latest",
	"/api/news/market",
	"/api/market-metrics",
	"/api/market-factors",
	"/api/sentiment/current",
	"/api/sentiment/historical",
	"/api/upcoming-events",
	"/ws",
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
}

type HealthErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

type NotFoundBody struct {
	Error              string   `json:"error"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

// SystemHandler serves health, the endpoint directory and the not-found fallback.
type SystemHandler struct {
	logger      *xlogger.Logger
	db          Pinger
	environment string
	now         func() time.Time
}

func NewSystemHandler(logger *xlogger.Logger, db Pinger, environment string) *SystemHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SystemHandler{
		logger:      logger.With("system_api"),
		db:          db,
		environment: environment,
		now:         time.Now,
	}
}

func (h *SystemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/api/health", h.Health)
	e.RouteNotFound("/*", h.NotFound)
}

func (h *SystemHandler) Health(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, HealthErrorResponse{
			Status:  "error",
			Error:   "Database connection failed",
			Details: err.Error(),
		})
	}
	return xhttp.JSONResponse(c, HealthResponse{
		Status:      "ok",
		Timestamp:   h.now().UTC(),
		Environment: h.environment,
		Database:    "connected",
	})
}

func (h *SystemHandler) Root(c echo.Context) error {
	return xhttp.JSONResponse(c, map[string]interface{}{
		"message": "Welcome to MarketMood API",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"news": map[string]string{
				"stored": "/api/news",
				"all":    "/api/news/all",
				"latest": "/api/news/latest",
				"market": "/api/news/market",
			},
			"market": map[string]string{
				"metrics": "/api/market-metrics",
				"factors": "/api/market-factors",
			},
			"sentiment": map[string]string{
				"current":    "/api/sentiment/current",
				"historical": "/api/sentiment/historical",
			},
			"events":  "/api/upcoming-events",
			"health":  "/api/health",
			"live":    "/ws",
			"metrics": "/metrics",
		},
	})
}

func (h *SystemHandler) NotFound(c echo.Context) error {
	path := c.Request().URL.Path
	h.logger.Warn("route not found",
		xlogger.String("method", c.Request().Method),
		xlogger.String("path", path),
	)
	return xhttp.NotFoundResponse(c, NotFoundBody{
		Error:              "Not Found",
		Message:            "The requested path " + path + " was not found",
		AvailableEndpoints: availableEndpoints,
	})
}
