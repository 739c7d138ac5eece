package navigation

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, engine *Engine) {
	h := &handler{
		engine: engine,
	}

	g := e.Group("/sessions")
	g.GET("", h.list)
	g.POST("/:user_id/browse", h.browse)
	g.POST("/:user_id/actions", h.apply)
}
