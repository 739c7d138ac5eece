package testutils

import (
	"net/http"

	"github.com/burrowbot/burrow/pkg/deliveries"
	"github.com/burrowbot/burrow/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	deliveryService *deliveries.Service
}

// createDeliveryRequest is the request body for seeding a delivery record.
type createDeliveryRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	ChatID int64  `json:"chat_id" validate:"required"`
	Path   string `json:"path" validate:"required,relpath"`
	Name   string `json:"name" validate:"required"`
	Size   int64  `json:"size" validate:"min=0"`
	Status string `json:"status" default:"sent" validate:"oneof=sent failed rejected"`
}

// createDelivery seeds a delivery record.
// POST /test/deliveries.
func (h *handler) createDelivery(c echo.Context) error {
	ctx := c.Request().Context()

	var req createDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	delivery := &models.Delivery{
		UserID: req.UserID,
		ChatID: req.ChatID,
		Path:   req.Path,
		Name:   req.Name,
		Size:   req.Size,
		Status: req.Status,
	}
	if err := h.deliveryService.CreateDelivery(ctx, delivery); err != nil {
		return errors.Wrap(err, "failed to create delivery")
	}

	return errors.WithStack(c.JSON(http.StatusCreated, delivery))
}

// deleteAllDeliveries clears the delivery audit table.
// DELETE /test/deliveries.
func (h *handler) deleteAllDeliveries(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.deliveryService.DeleteAllDeliveries(ctx); err != nil {
		return errors.Wrap(err, "failed to delete deliveries")
	}

	return c.NoContent(http.StatusNoContent)
}
