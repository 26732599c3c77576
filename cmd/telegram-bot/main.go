package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/telegram"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer l.Sync()

	ctx := context.Background()

	application, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to initialize app", zap.Error(err))
	}
	defer application.Close()

	sessions := telegram.NewSessionRepository(application.DB().SQL)
	if n, err := sessions.CleanupExpired(ctx, time.Now()); err != nil {
		l.Warn("failed to clean up telegram sessions", zap.Error(err))
	} else if n > 0 {
		l.Info("removed expired telegram sessions", zap.Int64("count", n))
	}

	bot, err := telegram.NewBot(cfg, application, sessions, l)
	if err != nil {
		l.Fatal("failed to initialize telegram bot", zap.Error(err))
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info("telegram bot server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
	l.Info("server exiting")
}
