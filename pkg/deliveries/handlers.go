package deliveries

import (
	"net/http"

	"github.com/burrowbot/burrow/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	deliveryService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind query params.
	params := ListDeliveriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	deliveries, total, err := h.deliveryService.ListDeliveriesWithTotal(ctx, ListDeliveriesOptions{
		UserID: params.UserID,
		Status: params.Status,
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Deliveries []*models.Delivery `json:"deliveries"`
		Total      int                `json:"total"`
	}{deliveries, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
