package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"skyline/internal/auth"
	"skyline/internal/domain/models"
	"skyline/internal/service/metrics"
	"skyline/internal/usecase"
	xhttp "skyline/pkg/http"
	xlogger "skyline/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReplayHandler serves the SSE replay stream and its pause/resume controls.
type ReplayHandler struct {
	logger *xlogger.Logger
	replay *usecase.ReplayManager
}

func NewReplayHandler(logger *xlogger.Logger, replay *usecase.ReplayManager) *ReplayHandler {
	return &ReplayHandler{logger: logger, replay: replay}
}

// GameReplay validates the request, registers the session, and streams
// commentary as `data:` frames until the replay ends or the client goes away.
// Params arrive both as query string and JSON body; body wins where present.
func (h *ReplayHandler) GameReplay(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("game_replay").Observe(time.Since(start).Seconds()) }()

	req := &models.ReplayRequest{}
	binder := new(echo.DefaultBinder)
	if err := binder.BindQueryParams(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, []xhttp.ValidationError{{Code: "ERR_BIND", Message: err.Error()}})
	}
	if c.Request().ContentLength > 0 {
		if err := binder.BindBody(c, req); err != nil {
			return c.JSON(http.StatusBadRequest, []xhttp.ValidationError{{Code: "ERR_BIND", Message: err.Error()}})
		}
	}
	if verr := xhttp.ApplyDefaultsAndValidate(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("game_replay").Inc()
		return c.JSON(http.StatusBadRequest, verr)
	}
	if uid := auth.UserID(c); uid != auth.GuestUser {
		req.UserID = uid
	}

	ctx := c.Request().Context()
	sess, err := h.replay.Open(ctx, req)
	if err != nil {
		metrics.APIErrors.WithLabelValues("game_replay").Inc()
		if errors.Is(err, usecase.ErrTooManyReplays) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many active replays")
		}
		h.logger.Error("replay open failed",
			xlogger.String("gid", req.GID), xlogger.String("user", req.UserID), xlogger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not start replay")
	}

	h.logger.Info("replay stream open",
		xlogger.String("gid", sess.GID),
		xlogger.String("user", sess.UserID),
		xlogger.String("mode", sess.Mode),
		xlogger.Int("interval", sess.Interval),
		xlogger.Int("cursor", sess.Cursor))

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	err = h.replay.Stream(ctx, sess, func(text string) error {
		if _, werr := fmt.Fprintf(res, "data: %s\n\n", text); werr != nil {
			return werr
		}
		res.Flush()
		return nil
	})
	if err != nil {
		// headers are gone; all we can do is log and drop the stream
		metrics.APIErrors.WithLabelValues("game_replay").Inc()
		h.logger.Error("replay stream ended with error",
			xlogger.String("gid", sess.GID), xlogger.Error(err))
	}
	return nil
}

// Pause flips the session to paused; the live stream stops on its next tick.
func (h *ReplayHandler) Pause(c echo.Context) error {
	return h.control(c, "pause", h.replay.Pause)
}

// Resume marks the session runnable; the client then re-opens the stream and
// continues from the stored cursor.
func (h *ReplayHandler) Resume(c echo.Context) error {
	return h.control(c, "resume", h.replay.Resume)
}

func (h *ReplayHandler) control(c echo.Context, op string, fn func(ctx context.Context, userID, gid string) error) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(op).Observe(time.Since(start).Seconds()) }()

	req := &models.ReplayControlRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}
	if uid := auth.UserID(c); uid != auth.GuestUser {
		req.UserID = uid
	}

	if err := fn(c.Request().Context(), req.UserID, req.GID); err != nil {
		metrics.APIErrors.WithLabelValues(op).Inc()
		if errors.Is(err, usecase.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no such replay session")
		}
		h.logger.Error("replay control failed",
			xlogger.String("op", op), xlogger.String("gid", req.GID), xlogger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "replay control failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": op + "d", "gid": req.GID, "user_id": req.UserID})
}
