package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/tickersocial/backend/internal/analysis"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/repositories"
)

// how long a background enrichment run may take before its context is cancelled
const enrichmentTimeout = 60 * time.Second

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository     repositories.PostRepository
	tagRepository      repositories.TagRepository
	userRepository     repositories.UserRepository
	reactionRepository repositories.ReactionRepository
	analysisEngine     *analysis.Engine
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	tagRepo repositories.TagRepository,
	userRepo repositories.UserRepository,
	reactionRepo repositories.ReactionRepository,
	analysisEngine *analysis.Engine,
) *PostHandler {
	return &PostHandler{
		postRepository:     postRepo,
		tagRepository:      tagRepo,
		userRepository:     userRepo,
		reactionRepository: reactionRepo,
		analysisEngine:     analysisEngine,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts) // all posts, or filtered by user/ticker via query params
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post and queues its analysis. The post is visible
// immediately with nil scores; enrichment attaches scores and tags later.
func (h *PostHandler) CreatePost(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.userRepository.EnsureUser(c.Request().Context(), firebaseUID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post := &models.Post{
		UserID:       firebaseUID,
		Ticker:       strings.ToUpper(req.Ticker),
		Content:      req.Content,
		AnalysisType: req.AnalysisType,
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Fire-and-forget enrichment: never blocks or fails post creation
	go h.enrichPost(*post)

	return c.JSON(http.StatusCreated, post)
}

// enrichPost runs the analysis engine and persists scores and tags. It runs
// on its own context; the originating request may be long gone.
func (h *PostHandler) enrichPost(post models.Post) {
	ctx, cancel := context.WithTimeout(context.Background(), enrichmentTimeout)
	defer cancel()

	result := h.analysisEngine.Analyze(ctx, post.Content, post.Ticker, post.AnalysisType)

	if err := h.postRepository.SetAnalysisScores(ctx, post.ID, result.QualityScore, result.TimeSensitivityScore, result.TickerRelevanceScore); err != nil {
		log.Printf("Error attaching analysis scores to post %s: %v", post.ID, err)
		return
	}

	// Replace even when the new set is empty: a re-analysis that yields zero
	// tags must not leave a previous run's tags behind
	tags := make([]models.PostTag, 0, len(result.Tags))
	for _, tag := range result.Tags {
		tags = append(tags, models.PostTag{
			TagType:    tag.Type,
			TagValue:   tag.Value,
			Confidence: tag.Confidence,
		})
	}
	if err := h.tagRepository.ReplaceTagsForPost(ctx, post.ID, tags); err != nil {
		log.Printf("Error attaching tags to post %s: %v", post.ID, err)
	}
}

// GetPost retrieves a post by ID, with its tags and reaction counts
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tags, err := h.tagRepository.GetTagsByPostID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	counts, err := h.reactionRepository.CountsForPost(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post":      post,
		"tags":      tags,
		"reactions": counts,
	})
}

// GetPosts retrieves multiple posts, optionally filtered by user or ticker
func (h *PostHandler) GetPosts(c echo.Context) error {
	userID := c.QueryParam("user_id")
	ticker := strings.ToUpper(c.QueryParam("ticker"))
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	var posts []models.Post
	var err error

	switch {
	case userID != "":
		posts, err = h.postRepository.GetPostsByUserID(c.Request().Context(), userID, skip, limit)
	case ticker != "":
		posts, err = h.postRepository.GetPostsByTicker(c.Request().Context(), ticker, skip, limit)
	default:
		posts, err = h.postRepository.GetRecentPosts(c.Request().Context(), limit)
	}

	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, posts)
}

// DeletePost deletes a post and all its dependent rows
func (h *PostHandler) DeletePost(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)
	postID := c.Param("id")

	existingPost, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Ensure the user deleting the post is the owner
	if existingPost.UserID != firebaseUID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
