package api

import (
	"context"
	"errors"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/usecase"
	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"

	"github.com/labstack/echo/v4"
)

const upcomingEventsLimit = 10

// Updater runs one market update cycle.
type Updater interface {
	Update(ctx context.Context, trigger string) (*usecase.UpdateResult, error)
}

// DashboardHandler serves the stored dashboard data.
type DashboardHandler struct {
	logger  *xlogger.Logger
	reader  domrepo.DashboardReader
	updater Updater
	now     func() time.Time
}

func NewDashboardHandler(logger *xlogger.Logger, reader domrepo.DashboardReader, updater Updater) *DashboardHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardHandler{
		logger:  logger.With("dashboard_api"),
		reader:  reader,
		updater: updater,
		now:     time.Now,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/sentiment/current", h.CurrentSentiment)
	g.GET("/sentiment/historical", h.HistoricalSentiment)
	g.GET("/news", h.News)
	g.GET("/market-metrics", h.MarketMetrics)
	g.GET("/market-factors", h.MarketFactors)
	g.GET("/upcoming-events", h.UpcomingEvents)
	g.POST("/update-market-data", h.UpdateMarketData)
}

func (h *DashboardHandler) CurrentSentiment(c echo.Context) error {
	cur, err := h.reader.CurrentSentiment(c.Request().Context())
	if err != nil {
		h.logger.Error("current sentiment error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch current sentiment data").WithError(err)
	}
	return xhttp.JSONResponse(c, cur)
}

func (h *DashboardHandler) HistoricalSentiment(c echo.Context) error {
	since, verr := h.cutoff(c)
	if verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}
	hist, err := h.reader.HistoricalSentiment(c.Request().Context(), since)
	if err != nil {
		h.logger.Error("historical sentiment error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch historical sentiment data").WithError(err)
	}
	return xhttp.JSONResponse(c, hist)
}

func (h *DashboardHandler) News(c echo.Context) error {
	since, verr := h.cutoff(c)
	if verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}
	items, err := h.reader.NewsItems(c.Request().Context(), since)
	if err != nil {
		h.logger.Error("news error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch news data").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(items))
}

func (h *DashboardHandler) MarketMetrics(c echo.Context) error {
	m, err := h.reader.MarketMetrics(c.Request().Context())
	if err != nil {
		h.logger.Error("market metrics error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch market metrics").WithError(err)
	}
	return xhttp.JSONResponse(c, m)
}

func (h *DashboardHandler) MarketFactors(c echo.Context) error {
	f, err := h.reader.MarketFactors(c.Request().Context())
	if err != nil {
		h.logger.Error("market factors error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch market factors").WithError(err)
	}
	return xhttp.JSONResponse(c, f)
}

func (h *DashboardHandler) UpcomingEvents(c echo.Context) error {
	events, err := h.reader.UpcomingEvents(c.Request().Context(), h.now(), upcomingEventsLimit)
	if err != nil {
		h.logger.Error("upcoming events error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch upcoming events").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(events))
}

// UpdateMarketData runs a full update cycle synchronously.
// A cycle already running elsewhere answers 409 with the same public message.
func (h *DashboardHandler) UpdateMarketData(c echo.Context) error {
	res, err := h.updater.Update(c.Request().Context(), usecase.TriggerAPI)
	if err != nil {
		h.logger.Error("update market data error", xlogger.Error(err))
		if errors.Is(err, usecase.ErrUpdateInProgress) {
			return xhttp.ConflictError("Failed to update market data").WithError(err)
		}
		return xhttp.InternalError("Failed to update market data").WithError(err)
	}
	h.logger.Info("market data updated via api", xlogger.String("event_id", res.EventID))
	return xhttp.JSONResponse(c, models.MessageBody{Message: "Market data updated successfully"})
}

func (h *DashboardHandler) cutoff(c echo.Context) (time.Time, interface{}) {
	req := &models.TimeFrameRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return time.Time{}, verr
	}
	return domrepo.NormalizeTimeFrame(req.TimeFrame).Cutoff(h.now()), nil
}
