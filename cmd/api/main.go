package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/npg-labs/neuroguard/backend/internal/api/routes"
	"github.com/npg-labs/neuroguard/backend/internal/config"
	"github.com/npg-labs/neuroguard/backend/internal/database"
	"github.com/npg-labs/neuroguard/backend/internal/logger"
	"github.com/npg-labs/neuroguard/backend/internal/server"
	"github.com/npg-labs/neuroguard/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Log with rotation, to both stdout and file.
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.Fatalf("create log dir: %v", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "neuroguard.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))

	logger.Log().Infof("starting %s backend, version %s", version.Name, version.Full())

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().Fatalf("connect database: %v", err)
	}

	srv := server.New(cfg)

	threats, err := routes.Register(srv.Engine, db, cfg)
	if err != nil {
		logger.Log().Fatalf("register routes: %v", err)
	}

	// Background sweep decays stale threat state so a quiet app does not
	// stay suspicious forever.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Threat.SweepSchedule, threats.Sweep); err != nil {
		logger.Log().Fatalf("schedule threat sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		logger.Log().Fatalf("server error: %v", err)
	}
	logger.Log().Info("shutdown complete")
}
