package deliveries

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, deliveryService *Service) {
	h := &handler{
		deliveryService: deliveryService,
	}

	e.GET("/deliveries", h.list)
}
