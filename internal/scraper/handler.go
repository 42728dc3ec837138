package scraper

import (
	"context"
	"net/http"

	xlogger "skyline/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HrefCollector is the page-scraping dependency of the handler.
type HrefCollector interface {
	CollectHrefs(ctx context.Context, pageURL string) ([]string, error)
}

const defaultVideoPrefix = "https://streamable.com/m/"

// Handler serves /getVideoUrl lookups.
type Handler struct {
	logger      *xlogger.Logger
	collector   HrefCollector
	videoPrefix string
}

func NewHandler(logger *xlogger.Logger, collector HrefCollector, videoPrefix string) *Handler {
	if videoPrefix == "" {
		videoPrefix = defaultVideoPrefix
	}
	return &Handler{logger: logger, collector: collector, videoPrefix: videoPrefix}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/getVideoUrl", h.GetVideoURL)
}

// GetVideoURL scrapes the highlights page for the anchor that belongs to
// playId and returns the playable video URL as plain text.
func (h *Handler) GetVideoURL(c echo.Context) error {
	pageURL := c.QueryParam("url")
	playID := c.QueryParam("playId")
	if pageURL == "" || playID == "" {
		return c.String(http.StatusBadRequest, "Missing required parameters")
	}

	hrefs, err := h.collector.CollectHrefs(c.Request().Context(), pageURL)
	if err != nil {
		h.logger.Error("scrape failed", xlogger.String("url", pageURL), xlogger.Error(err))
		return c.String(http.StatusInternalServerError, "Failed to fetch video path")
	}

	path, ok := ExtractVideoPath(hrefs, playID)
	if !ok {
		return c.String(http.StatusBadRequest, "Video path not found")
	}
	return c.String(http.StatusOK, h.videoPrefix+path)
}
