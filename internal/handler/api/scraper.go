package api

import (
	"context"

	"MarketMood/internal/domain/models"
	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"

	"github.com/labstack/echo/v4"
)

// NewsScraper is the Moneycontrol surface exposed directly over HTTP.
type NewsScraper interface {
	ScrapeIndianIndices(ctx context.Context) ([]models.MarketIndex, error)
	ScrapeGlobalIndices(ctx context.Context) ([]models.MarketIndex, error)
	ScrapeLatestNews(ctx context.Context) ([]models.NewsArticle, error)
	ScrapeMarketNews(ctx context.Context) ([]models.MarketNews, error)
	ScrapeAllNews(ctx context.Context) ([]models.MarketNews, error)
}

type CalendarScraper interface {
	ScrapeEconomicCalendar(ctx context.Context) ([]models.EconomicEvent, error)
}

type MetricsRefresher interface {
	Refresh(ctx context.Context) error
}

// ScraperHandler proxies live scrapes. Responses are never cacheable.
type ScraperHandler struct {
	logger    *xlogger.Logger
	news      NewsScraper
	calendar  CalendarScraper
	refresher MetricsRefresher
}

func NewScraperHandler(logger *xlogger.Logger, news NewsScraper, calendar CalendarScraper, refresher MetricsRefresher) *ScraperHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ScraperHandler{
		logger:    logger.With("scraper_api"),
		news:      news,
		calendar:  calendar,
		refresher: refresher,
	}
}

// RegisterRoutes applies noCache per route so unmatched /api paths still reach the 404 fallback.
func (h *ScraperHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/news/all", h.AllNews, noCache)
	g.GET("/news/latest", h.LatestNews, noCache)
	g.GET("/news/market", h.MarketNews, noCache)

	g.GET("/moneycontrol/indian-indices", h.IndianIndices, noCache)
	g.GET("/moneycontrol/global-indices", h.GlobalIndices, noCache)
	g.GET("/moneycontrol/latest-news", h.LatestNews, noCache)
	g.GET("/moneycontrol/market-news", h.MarketNews, noCache)
	g.POST("/moneycontrol/update-metrics", h.UpdateMetrics, noCache)

	g.GET("/zerodha/economic-calendar", h.EconomicCalendar, noCache)
}

func noCache(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		xhttp.NoCache(c)
		return next(c)
	}
}

func (h *ScraperHandler) AllNews(c echo.Context) error {
	news, err := h.news.ScrapeAllNews(c.Request().Context())
	if err != nil {
		h.logger.Error("scrape all news error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch news").WithError(err)
	}
	h.logger.Info("fetched all news", xlogger.Int("count", len(news)))
	return xhttp.JSONResponse(c, emptyIfNil(news))
}

func (h *ScraperHandler) LatestNews(c echo.Context) error {
	news, err := h.news.ScrapeLatestNews(c.Request().Context())
	if err != nil {
		h.logger.Error("scrape latest news error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch latest news").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(news))
}

func (h *ScraperHandler) MarketNews(c echo.Context) error {
	news, err := h.news.ScrapeMarketNews(c.Request().Context())
	if err != nil {
		h.logger.Error("scrape market news error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch market news").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(news))
}

func (h *ScraperHandler) IndianIndices(c echo.Context) error {
	idx, err := h.news.ScrapeIndianIndices(c.Request().Context())
	if err != nil {
		h.logger.Error("scrape indian indices error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch Indian indices").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(idx))
}

func (h *ScraperHandler) GlobalIndices(c echo.Context) error {
	idx, err := h.news.ScrapeGlobalIndices(c.Request().Context())
	if err != nil {
		h.logger.Error("scrape global indices error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch global indices").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(idx))
}

func (h *ScraperHandler) UpdateMetrics(c echo.Context) error {
	if err := h.refresher.Refresh(c.Request().Context()); err != nil {
		h.logger.Error("update market metrics error", xlogger.Error(err))
		return xhttp.InternalError("Failed to update market metrics").WithError(err)
	}
	return xhttp.JSONResponse(c, models.MessageBody{Message: "Market metrics updated successfully"})
}

func (h *ScraperHandler) EconomicCalendar(c echo.Context) error {
	rows, err := h.calendar.ScrapeEconomicCalendar(c.Request().Context())
	if err != nil {
		h.logger.Error("scrape economic calendar error", xlogger.Error(err))
		return xhttp.InternalError("Failed to fetch economic calendar").WithError(err)
	}
	return xhttp.JSONResponse(c, emptyIfNil(rows))
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
