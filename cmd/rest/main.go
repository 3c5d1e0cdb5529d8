package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"vibez-studio/internal/bootstrap"
	"vibez-studio/internal/config"
	"vibez-studio/internal/pkg/logger"
	"vibez-studio/internal/server"
	"vibez-studio/internal/tracer"
	"vibez-studio/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.App.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	shutdownTracer := tracer.Init(cfg.Tracing, sysLogger)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultPool)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	defer container.Close()

	srv := server.New(cfg, container)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.WebSocketHub.Run(gctx) })
	g.Go(func() error { return container.ViewRelay.Run(gctx) })
	if container.ActivityService != nil {
		g.Go(func() error {
			if err := container.ActivityService.Start(gctx); err != nil {
				container.Logger.Warn("Main", "Activity stream unavailable", map[string]interface{}{"error": err.Error()})
			}
			return nil
		})
	}
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
