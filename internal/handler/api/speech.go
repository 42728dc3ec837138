package api

import (
	"net/http"
	"time"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	"skyline/internal/service/metrics"
	xhttp "skyline/pkg/http"
	xlogger "skyline/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SpeechHandler proxies commentary lines to the speech synthesizer.
type SpeechHandler struct {
	logger *xlogger.Logger
	tts    drepo.SpeechSynthesizer
}

func NewSpeechHandler(logger *xlogger.Logger, tts drepo.SpeechSynthesizer) *SpeechHandler {
	return &SpeechHandler{logger: logger, tts: tts}
}

func (h *SpeechHandler) Synthesize(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("speech").Observe(time.Since(start).Seconds()) }()

	req := &models.SpeechRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	audioURL, err := h.tts.Synthesize(c.Request().Context(), req.Text)
	if err != nil {
		metrics.APIErrors.WithLabelValues("speech").Inc()
		h.logger.Error("speech synthesis failed", xlogger.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "speech service unavailable")
	}
	return c.JSON(http.StatusOK, models.SpeechResponse{AudioURL: audioURL})
}
