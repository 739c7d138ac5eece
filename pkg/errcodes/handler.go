package errcodes

import (
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// Handle writes err as a JSON error body. Only messages we wrote ourselves
// reach the client: anything unrecognized becomes a 500 and anything else
// falls back to the status text, so filesystem paths inside error values are
// never echoed.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)
	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}

	body := bodyFor(err)
	if body.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error")
	}

	if err := c.JSON(body.StatusCode, map[string]errorBody{"error": body}); err != nil {
		log.Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func bodyFor(err error) errorBody {
	var e *Error
	if errors.As(err, &e) {
		return errorBody{Code: e.Code, Message: e.Message, StatusCode: e.HTTPCode}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		if msg != "" {
			return errorBody{Code: strcase.ToSnake(msg), Message: msg, StatusCode: he.Code}
		}
	}

	return errorBody{
		Code:       "internal_server_error",
		Message:    "Internal Server Error",
		StatusCode: http.StatusInternalServerError,
	}
}
