package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/admin"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/api"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/bootstrap"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Close()

	router := api.NewRouter(&api.Services{DashboardService: app.Dashboards}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	var db admin.Pinger
	if app.Records != nil {
		db = app.Records
	}
	adminSrv := &http.Server{
		Addr:         ":" + cfg.Server.AdminPort,
		Handler:      admin.NewRouter(admin.NewHandler(app.Dashboards, db, app.Storage)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	for _, s := range []struct {
		name string
		srv  *http.Server
	}{{"api", srv}, {"admin", adminSrv}} {
		go func() {
			logger.Log.Info().Str("server", s.name).Str("addr", s.srv.Addr).Msg("Starting server")
			if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Fatal().Err(err).Str("server", s.name).Msg("Failed to start server")
			}
		}()
	}

	warmCtx, stopWarm := context.WithCancel(context.Background())
	defer stopWarm()
	if cfg.Cache.WarmOnStart {
		go app.Dashboards.Warm(warmCtx, cfg.Cache.WarmWorkers)
	}
	go app.Dashboards.WarmEvery(warmCtx, time.Duration(cfg.Cache.WarmIntervalSec)*time.Second, cfg.Cache.WarmWorkers)

	// Wait for interrupt signal to gracefully shut down the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")
	stopWarm()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := adminSrv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Admin server forced to shutdown")
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
