package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/burrowbot/burrow/pkg/config"
	"github.com/burrowbot/burrow/pkg/database"
	"github.com/burrowbot/burrow/pkg/deliveries"
	"github.com/burrowbot/burrow/pkg/filesystem"
	"github.com/burrowbot/burrow/pkg/migrations"
	"github.com/burrowbot/burrow/pkg/navigation"
	"github.com/burrowbot/burrow/pkg/pathguard"
	"github.com/burrowbot/burrow/pkg/server"
	"github.com/burrowbot/burrow/pkg/telegram"
	"github.com/burrowbot/burrow/pkg/version"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting burrow", logger.Data{"version": version.String()})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	// The root directory is created on first start.
	if err := os.MkdirAll(cfg.RootPath, 0755); err != nil {
		log.Err(err).Fatal("root directory error")
	}
	guard, err := pathguard.New(cfg.RootPath)
	if err != nil {
		log.Err(err).Fatal("root directory error")
	}
	log.Info("serving root directory", logger.Data{"path": guard.Root().String()})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	filesystemService := filesystem.NewService(guard, filesystem.Options{
		HideDotfiles: cfg.HideDotfiles,
		HidePatterns: cfg.HidePatterns,
	})
	engine := navigation.NewEngine(guard, filesystemService, navigation.NewMemoryRegistry(guard.Root()))
	deliveryService := deliveries.NewService(db)

	srv, err := server.New(cfg, db, engine, filesystemService)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Err(err).Fatal("telegram error")
	}
	api.Debug = cfg.TelegramDebug
	log.Info("authorized on telegram", logger.Data{"username": api.Self.UserName})

	bot := telegram.NewBot(api, engine, filesystemService, deliveryService, telegram.Options{
		MaxFileSize: cfg.MaxFileSize,
	})
	dispatcher := telegram.NewDispatcher(api, bot, telegram.DispatcherOptions{
		Lanes:       cfg.WorkerProcesses,
		PollTimeout: cfg.TelegramPollTimeout,
	})

	graceful := signals.Setup()

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", srv.Addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	dispatcher.Start()
	log.Info("dispatcher started", logger.Data{"lanes": cfg.WorkerProcesses})

	<-graceful
	log.Info("starting graceful shutdown")

	dispatcher.Shutdown()
	log.Info("dispatcher shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
