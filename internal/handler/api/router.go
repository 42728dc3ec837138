package api

import (
	"skyline/internal/auth"
	"skyline/internal/service/metrics"

	"github.com/labstack/echo/v4"
)

// Router wires all Skyline API handlers onto one Echo instance. Routes keep
// the paths the mobile client already calls.
type Router struct {
	replay      *ReplayHandler
	games       *GamesHandler
	predictions *PredictionsHandler
	speech      *SpeechHandler

	jwtSecret  string
	enforceJWT bool
}

func NewRouter(
	replay *ReplayHandler,
	games *GamesHandler,
	predictions *PredictionsHandler,
	speech *SpeechHandler,
	jwtSecret string,
	enforceJWT bool,
) *Router {
	metrics.Register()
	return &Router{
		replay:      replay,
		games:       games,
		predictions: predictions,
		speech:      speech,
		jwtSecret:   jwtSecret,
		enforceJWT:  enforceJWT,
	}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.Use(auth.Middleware(r.jwtSecret, r.enforceJWT))

	e.GET("/getLastTenGames", r.games.LastTenGames)
	e.GET("/predict-win", r.predictions.PredictWin)
	e.POST("/speech", r.speech.Synthesize)

	e.POST("/game-replay", r.replay.GameReplay)
	e.POST("/pause", r.replay.Pause)
	e.POST("/resume", r.replay.Resume)
}
