package filesystem

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/burrowbot/burrow/pkg/errcodes"
	"github.com/burrowbot/burrow/pkg/pathguard"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	echologger "github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	filesystemService *Service
}

func (h *handler) browse(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind query params.
	params := BrowseQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	resp, err := h.filesystemService.Browse(ctx, BrowseOptions(params))
	if err != nil {
		return h.mapError(c, err, "Directory", params.Path)
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) download(c echo.Context) error {
	ctx := c.Request().Context()

	params := DownloadQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loc, err := h.filesystemService.guard.Resolve(params.Path)
	if err != nil {
		return h.mapError(c, err, "File", params.Path)
	}

	f, entry, err := h.filesystemService.Open(ctx, loc)
	if err != nil {
		return h.mapError(c, err, "File", params.Path)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", entry.Name))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(entry.Size, 10))

	return errors.WithStack(c.Stream(http.StatusOK, mtype.String(), f))
}

func (h *handler) mapError(c echo.Context, err error, resource, requested string) error {
	switch {
	case errors.Is(err, pathguard.ErrRejected):
		echologger.FromEchoContext(c).Warn("rejected path outside root", logger.Data{"path": requested})
		return errcodes.Forbidden("Accessing paths outside the root directory")
	case errors.Is(err, ErrNotFound):
		return errcodes.NotFound(resource)
	case errors.Is(err, ErrPermissionDenied):
		return errcodes.AccessDenied(resource)
	default:
		return errors.WithStack(err)
	}
}
