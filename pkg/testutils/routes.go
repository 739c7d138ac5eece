// Package testutils provides test-only API endpoints.
// These routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/burrowbot/burrow/pkg/deliveries"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, deliveryService *deliveries.Service) {
	h := &handler{deliveryService: deliveryService}

	test := e.Group("/test")
	test.POST("/deliveries", h.createDelivery)
	test.DELETE("/deliveries", h.deleteAllDeliveries)
}
