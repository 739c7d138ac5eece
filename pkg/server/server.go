package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/burrowbot/burrow/pkg/binder"
	"github.com/burrowbot/burrow/pkg/config"
	"github.com/burrowbot/burrow/pkg/deliveries"
	"github.com/burrowbot/burrow/pkg/errcodes"
	"github.com/burrowbot/burrow/pkg/filesystem"
	"github.com/burrowbot/burrow/pkg/metrics"
	"github.com/burrowbot/burrow/pkg/navigation"
	"github.com/burrowbot/burrow/pkg/testutils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// New builds the operator API. It shares the navigation engine and the
// filesystem service with the bot, so both see the same sessions and root.
func New(cfg *config.Config, db *bun.DB, engine *navigation.Engine, filesystemService *filesystem.Service) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	deliveryService := deliveries.NewService(db)

	config.RegisterRoutes(e, cfg)
	filesystem.RegisterRoutes(e, filesystemService)
	navigation.RegisterRoutes(e, engine)
	deliveries.RegisterRoutes(e, deliveryService)

	if cfg.Environment == config.EnvironmentTest {
		testutils.RegisterRoutes(e, deliveryService)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
