package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/follow-graph/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports service and store liveness
type HealthHandler struct {
	userRepository repositories.UserRepository
	store          string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(userRepo repositories.UserRepository, store string) *HealthHandler {
	return &HealthHandler{userRepository: userRepo, store: store}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.userRepository.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": "follow-graph",
			"store":   h.store,
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "follow-graph",
		"store":   h.store,
	})
}
