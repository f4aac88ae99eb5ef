package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pressmod/backend/internal/middleware"
	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/moderation"
)

// CommentHandler handles HTTP requests related to comments. Submission
// returns immediately with the pending comment; classification runs on the
// background queue.
type CommentHandler struct {
	moderationService *moderation.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(moderationService *moderation.Service) *CommentHandler {
	return &CommentHandler{moderationService: moderationService}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.SubmitComment)
	g.GET("/posts/:post_id/comments", h.GetApprovedComments)
}

// SubmitComment accepts a new comment into the moderation pipeline
func (h *CommentHandler) SubmitComment(c echo.Context) error {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.moderationService.Submit(c.Request().Context(), postID, claims.UserID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		case errors.Is(err, moderation.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetApprovedComments retrieves the publicly visible comments for a post
func (h *CommentHandler) GetApprovedComments(c echo.Context) error {
	postID := c.Param("post_id")

	comments, err := h.moderationService.ApprovedComments(c.Request().Context(), postID)
	if err != nil {
		if errors.Is(err, moderation.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comments)
}
