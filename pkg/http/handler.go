package http

import "github.com/labstack/echo/v4"

// Handler is what NewServer mounts; the API router and the scraper handler
// both implement it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
