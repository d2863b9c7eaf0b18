package router

import (
	"log/slog"

	"github.com/anonto42/follow-graph/backend/internal/handlers"
	"github.com/anonto42/follow-graph/backend/internal/middleware"
	"github.com/anonto42/follow-graph/backend/internal/repositories"
	"github.com/anonto42/follow-graph/backend/internal/services"
	"github.com/anonto42/follow-graph/backend/internal/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *slog.Logger) {
	e.Use(eMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Validator = validators.NewValidator()
	logger.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, userRepo repositories.UserRepository, store string, opts services.Options, logger *slog.Logger) {
	healthHandler := handlers.NewHealthHandler(userRepo, store)
	e.GET("/health", healthHandler.HealthCheck)

	socialGraph := services.NewSocialGraphService(userRepo, opts, logger)
	followHandler := handlers.NewFollowHandler(socialGraph)
	followHandler.RegisterFollowRoutes(e)

	logger.Info("All routes configured.", slog.String("store", store))
}
