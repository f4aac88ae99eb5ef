package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pressmod/backend/internal/middleware"
	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/moderation"
	"github.com/pressmod/backend/internal/repositories"
)

// AdminHandler exposes the admin review gate over HTTP.
type AdminHandler struct {
	moderationService *moderation.Service
	userRepository    repositories.UserRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(moderationService *moderation.Service, userRepo repositories.UserRepository) *AdminHandler {
	return &AdminHandler{
		moderationService: moderationService,
		userRepository:    userRepo,
	}
}

// RegisterAdminRoutes registers admin review routes
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/admin/comments/flagged", h.ListFlagged)
	g.POST("/admin/comments/:id", h.Act)
}

// ReviewActionRequest defines the request body for an admin review decision
type ReviewActionRequest struct {
	Action string `json:"action"`
}

// actor resolves the authenticated user from the database. The stored role
// is authoritative, not the one baked into the token.
func (h *AdminHandler) actor(c echo.Context) (*models.User, error) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	user, err := h.userRepository.GetUserByID(claims.UserID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authenticated user not found")
	}
	return user, nil
}

// ListFlagged returns all comments awaiting admin review
func (h *AdminHandler) ListFlagged(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	comments, listErr := h.moderationService.ListFlagged(actor)
	if listErr != nil {
		if errors.Is(listErr, moderation.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusForbidden, "Unauthorized")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, listErr.Error())
	}

	return c.JSON(http.StatusOK, comments)
}

// Act applies an approve or reject decision to a flagged comment
func (h *AdminHandler) Act(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	commentID := c.Param("id")

	var req ReviewActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	comment, actErr := h.moderationService.Act(c.Request().Context(), actor, commentID, req.Action)
	if actErr != nil {
		switch {
		case errors.Is(actErr, moderation.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusForbidden, "Unauthorized")
		case errors.Is(actErr, moderation.ErrInvalidAction):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid action")
		case errors.Is(actErr, moderation.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		case errors.Is(actErr, moderation.ErrIllegalTransition):
			return echo.NewHTTPError(http.StatusConflict, actErr.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, actErr.Error())
		}
	}

	message := "Comment approved"
	if comment.Status == models.StatusRejected {
		message = "Comment rejected and scheduled for deletion"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": message,
		"comment": comment,
	})
}
