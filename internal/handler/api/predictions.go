package api

import (
	"net/http"
	"time"

	"skyline/internal/domain/models"
	"skyline/internal/service/metrics"
	"skyline/internal/usecase"
	xhttp "skyline/pkg/http"
	xlogger "skyline/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictionsHandler serves the win-probability chart data.
type PredictionsHandler struct {
	logger      *xlogger.Logger
	predictions *usecase.PredictionService
}

func NewPredictionsHandler(logger *xlogger.Logger, predictions *usecase.PredictionService) *PredictionsHandler {
	return &PredictionsHandler{logger: logger, predictions: predictions}
}

func (h *PredictionsHandler) PredictWin(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("predict_win").Observe(time.Since(start).Seconds()) }()

	req := &models.PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	points, err := h.predictions.WinProbability(c.Request().Context(), req.GID, req.StatsAPIGamePk)
	if err != nil {
		metrics.APIErrors.WithLabelValues("predict_win").Inc()
		h.logger.Error("win probability failed",
			xlogger.String("gid", req.GID), xlogger.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "prediction unavailable")
	}
	return c.JSON(http.StatusOK, models.PredictionResponse{Predictions: points})
}
