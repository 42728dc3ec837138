package api

import (
	"net/http"
	"time"

	"skyline/internal/service/metrics"
	"skyline/internal/usecase"
	xhttp "skyline/pkg/http"
	xlogger "skyline/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GamesHandler serves the recent-games list the home screen renders.
type GamesHandler struct {
	logger *xlogger.Logger
	games  *usecase.GamesService
}

func NewGamesHandler(logger *xlogger.Logger, games *usecase.GamesService) *GamesHandler {
	return &GamesHandler{logger: logger, games: games}
}

// LastTenGames returns the ten most recent games, newest first, as a bare
// array to match the original endpoint contract. An optional `before` query
// param (RFC3339 or unix seconds) pages further back in time.
func (h *GamesHandler) LastTenGames(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("games").Observe(time.Since(start).Seconds()) }()

	before := xhttp.ParseTimeDefault(c.QueryParam("before"), time.Time{})
	games, err := h.games.RecentGames(c.Request().Context(), before)
	if err != nil {
		metrics.APIErrors.WithLabelValues("games").Inc()
		h.logger.Error("recent games lookup failed", xlogger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load recent games")
	}
	return c.JSON(http.StatusOK, games)
}
