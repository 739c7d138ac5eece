package errcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHandler().Handle(err, c)

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body["error"]
}

func TestHandle(t *testing.T) {
	t.Parallel()

	t.Run("custom error keeps its code", func(tt *testing.T) {
		code, body := handle(tt, errors.WithStack(AccessDenied("Directory")))
		assert.Equal(tt, http.StatusForbidden, code)
		assert.Equal(tt, "access_denied", body["code"])
		assert.Equal(tt, "No access to this directory.", body["message"])
	})

	t.Run("not found", func(tt *testing.T) {
		code, body := handle(tt, NotFound("File"))
		assert.Equal(tt, http.StatusNotFound, code)
		assert.Equal(tt, "File not found.", body["message"])
	})

	t.Run("echo error is snake cased", func(tt *testing.T) {
		code, body := handle(tt, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
		assert.Equal(tt, http.StatusMethodNotAllowed, code)
		assert.Equal(tt, "method_not_allowed", body["code"])
	})

	t.Run("echo error with a non-string message uses the status text", func(tt *testing.T) {
		he := echo.NewHTTPError(http.StatusBadRequest, errors.New("open /srv/secret/path: permission denied"))
		code, body := handle(tt, he)
		assert.Equal(tt, http.StatusBadRequest, code)
		assert.Equal(tt, "bad_request", body["code"])
		assert.Equal(tt, "Bad Request", body["message"])
		assert.EqualValues(tt, http.StatusBadRequest, body["status_code"])
	})

	t.Run("echo error with a map message", func(tt *testing.T) {
		code, body := handle(tt, echo.NewHTTPError(http.StatusNotFound, map[string]string{"path": "/srv/secret"}))
		assert.Equal(tt, http.StatusNotFound, code)
		assert.Equal(tt, "Not Found", body["message"])
	})

	t.Run("echo error with an unknown code and no message", func(tt *testing.T) {
		code, body := handle(tt, &echo.HTTPError{Code: 599, Message: 42})
		assert.Equal(tt, http.StatusInternalServerError, code)
		assert.Equal(tt, "internal_server_error", body["code"])
	})

	t.Run("generic error is hidden", func(tt *testing.T) {
		code, body := handle(tt, errors.New("/srv/secret/path exploded"))
		assert.Equal(tt, http.StatusInternalServerError, code)
		assert.Equal(tt, "internal_server_error", body["code"])
		assert.Equal(tt, "Internal Server Error", body["message"])
	})
}
