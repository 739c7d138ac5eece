package navigation

import (
	"net/http"
	"strconv"

	"github.com/burrowbot/burrow/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	engine *Engine
}

func (h *handler) list(c echo.Context) error {
	snapshots := h.engine.Sessions()
	sessions := make([]SessionResponse, 0, len(snapshots))
	for _, s := range snapshots {
		sessions = append(sessions, SessionResponse{
			UserID: s.UserID,
			Path:   h.engine.Guard().Display(s.Location),
		})
	}

	resp := struct {
		Sessions []SessionResponse `json:"sessions"`
	}{sessions}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) browse(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errcodes.NotFound("Session")
	}

	outcome := h.engine.Browse(ctx, userID)
	return h.respond(c, outcome)
}

func (h *handler) apply(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errcodes.NotFound("Session")
	}

	params := ApplyActionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	outcome := h.engine.Apply(ctx, userID, params.Token)
	return h.respond(c, outcome)
}

// respond always answers 200 for outcomes the engine produced. Failure
// outcomes are normal results of a navigation step, not request errors.
func (h *handler) respond(c echo.Context, outcome Outcome) error {
	return errors.WithStack(c.JSON(http.StatusOK, newOutcomeResponse(outcome)))
}
