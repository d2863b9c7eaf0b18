package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/follow-graph/backend/internal/router"
	"github.com/anonto42/follow-graph/backend/internal/services"
	"github.com/anonto42/follow-graph/backend/pkg/config"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := config.InitLogger(cfg)

	// Initialize the store backend
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", "err", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	userRepo, err := db.UserRepository()
	if err != nil {
		logger.Error("Failed to build user repository", "err", err)
		os.Exit(1)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	router.SetupMiddleware(e, logger)
	router.SetupRoutes(e, userRepo, cfg.StoreBackend, services.Options{FloorFollowCount: cfg.FloorFollowCount}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "err", err)
	}
	logger.Info("Server shut down")
}
