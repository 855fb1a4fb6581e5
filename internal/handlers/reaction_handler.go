package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/repositories"
)

// ReactionHandler handles HTTP requests related to reactions
type ReactionHandler struct {
	reactionRepository repositories.ReactionRepository
	postRepository     repositories.PostRepository
	userRepository     repositories.UserRepository
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(reactionRepo repositories.ReactionRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository) *ReactionHandler {
	return &ReactionHandler{
		reactionRepository: reactionRepo,
		postRepository:     postRepo,
		userRepository:     userRepo,
	}
}

// RegisterReactionRoutes registers reaction-related routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/reactions", h.ToggleReaction)
	g.GET("/posts/:post_id/reactions", h.GetReactionCounts)
}

// ToggleReaction toggles a (user, post, type) reaction: applying the same
// reaction twice returns to the original state
func (h *ReactionHandler) ToggleReaction(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)
	postID := c.Param("post_id")

	var req models.ToggleReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.userRepository.EnsureUser(c.Request().Context(), firebaseUID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	applied, err := h.reactionRepository.ToggleReaction(c.Request().Context(), postID, firebaseUID, req.ReactionType)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":       postID,
		"reaction_type": req.ReactionType,
		"applied":       applied,
	})
}

// GetReactionCounts returns the zero-filled per-type reaction counts for a post
func (h *ReactionHandler) GetReactionCounts(c echo.Context) error {
	postID := c.Param("post_id")

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	counts, err := h.reactionRepository.CountsForPost(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "reactions": counts})
}
