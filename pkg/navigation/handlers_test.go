package navigation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/burrowbot/burrow/pkg/binder"
	"github.com/burrowbot/burrow/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, f *fixture) *echo.Echo {
	t.Helper()
	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutes(e, f.engine)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) (int, OutcomeResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp OutcomeResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestHandlers_BrowseAndApply(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := newTestServer(t, f)

	code, resp := doJSON(t, e, http.MethodPost, "/sessions/5/browse", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "navigated", resp.Outcome)
	require.NotNil(t, resp.Listing)
	assert.Equal(t, "/", resp.Listing.Path)
	require.Len(t, resp.Listing.Items, 2)

	docsToken := resp.Listing.Items[0].Token
	code, resp = doJSON(t, e, http.MethodPost, "/sessions/5/actions", `{"token":"`+docsToken+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "navigated", resp.Outcome)
	assert.Equal(t, "/docs", resp.Listing.Path)
	require.NotNil(t, resp.Listing.Up)

	notesToken := resp.Listing.Items[1].Token
	code, resp = doJSON(t, e, http.MethodPost, "/sessions/5/actions", `{"token":"`+notesToken+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "file_requested", resp.Outcome)
	require.NotNil(t, resp.File)
	assert.Equal(t, "/docs/notes.md", resp.File.Path)
	assert.Equal(t, "notes.md", resp.File.Name)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[{"user_id":5,"path":"/docs"}]}`, rec.Body.String())
}

func TestHandlers_DeniedDoesNotLeakPaths(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := newTestServer(t, f)

	req := httptest.NewRequest(http.MethodPost, "/sessions/9/actions", strings.NewReader(`{"token":"d:../../etc"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"denied"`)
	assert.NotContains(t, rec.Body.String(), f.outside)
}

func TestHandlers_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := newTestServer(t, f)

	code, _ := doJSON(t, e, http.MethodPost, "/sessions/abc/browse", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, e, http.MethodPost, "/sessions/1/actions", `{"token":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = doJSON(t, e, http.MethodPost, "/sessions/1/actions", `{"token":"h","extra":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}
