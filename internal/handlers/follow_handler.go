package handlers

import (
	"net/http"

	"github.com/anonto42/follow-graph/backend/internal/models"
	"github.com/anonto42/follow-graph/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow graph HTTP requests
type FollowHandler struct {
	socialGraph *services.SocialGraphService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(socialGraph *services.SocialGraphService) *FollowHandler {
	return &FollowHandler{socialGraph: socialGraph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(e *echo.Echo) {
	e.POST("/follow", h.FollowUser)
	e.POST("/unfollow", h.UnfollowUser)
	e.POST("/followers", h.FollowersCount)
	e.POST("/common_followers", h.CommonFollowers)
	e.GET("/users", h.GetUsers)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	var req models.FollowRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.socialGraph.Follow(c.Request().Context(), req.FollowerID, req.FolloweeID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Followed successfully"})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	var req models.FollowRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.socialGraph.Unfollow(c.Request().Context(), req.FollowerID, req.FolloweeID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Unfollowed successfully"})
}

// FollowersCount returns a user's daily follow counter
func (h *FollowHandler) FollowersCount(c echo.Context) error {
	var req models.FollowerCountRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	count, err := h.socialGraph.FollowerCount(c.Request().Context(), req.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"followers_count": count})
}

// CommonFollowers lists users following both given users
func (h *FollowHandler) CommonFollowers(c echo.Context) error {
	var req models.CommonFollowersRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	common, err := h.socialGraph.CommonFollowers(c.Request().Context(), req.User1ID, req.User2ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, common)
}

// GetUsers lists every user
func (h *FollowHandler) GetUsers(c echo.Context) error {
	users, err := h.socialGraph.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}
