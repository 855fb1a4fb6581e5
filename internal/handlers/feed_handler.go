package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/ranking"
	"github.com/tickersocial/backend/internal/repositories"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	rankingEngine         *ranking.Engine
	postRepository        repositories.PostRepository
	userRepository        repositories.UserRepository
	reactionRepository    repositories.ReactionRepository
	feedRankingRepository repositories.FeedRankingRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	rankingEngine *ranking.Engine,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	reactionRepo repositories.ReactionRepository,
	feedRankingRepo repositories.FeedRankingRepository,
) *FeedHandler {
	return &FeedHandler{
		rankingEngine:         rankingEngine,
		postRepository:        postRepo,
		userRepository:        userRepo,
		reactionRepository:    reactionRepo,
		feedRankingRepository: feedRankingRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// FeedEntry is one fully enriched item of the ranked feed response
type FeedEntry struct {
	Post        models.Post           `json:"post"`
	Author      models.UserCompact    `json:"author"`
	RankScore   float64               `json:"rank_score"`
	Explanation string                `json:"explanation"`
	Factors     ranking.Factors       `json:"factors"`
	Reactions   models.ReactionCounts `json:"reactions"`
}

// GetFeed returns the personalized ranked feed for the current user
func (h *FeedHandler) GetFeed(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 || limit > 100 {
		limit = 0 // engine default
	}

	items, err := h.rankingEngine.RankFeed(c.Request().Context(), firebaseUID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Snapshot the run into the ranking cache. The cache is regenerable, so a
	// write failure is logged and does not fail the request.
	if err := h.feedRankingRepository.ReplaceForUser(c.Request().Context(), firebaseUID, toRankingRows(items)); err != nil {
		log.Printf("Error caching feed rankings for user %s: %v", firebaseUID, err)
	}

	entries, err := h.enrichItems(c, items)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"feed": entries,
		},
	})
}

// enrichItems joins ranked items with their posts, authors and reaction counts
func (h *FeedHandler) enrichItems(c echo.Context, items []ranking.FeedItem) ([]FeedEntry, error) {
	ctx := c.Request().Context()

	postIDs := make([]string, len(items))
	for i, item := range items {
		postIDs[i] = item.PostID
	}

	posts, err := h.postRepository.GetPostsByIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	postMap := make(map[string]models.Post, len(posts))
	authorIDSet := make(map[string]bool)
	for _, p := range posts {
		postMap[p.ID] = p
		authorIDSet[p.UserID] = true
	}

	authorIDs := make([]string, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}
	authors, err := h.userRepository.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	authorMap := make(map[string]models.UserCompact, len(authors))
	for _, u := range authors {
		authorMap[u.ID] = u.ToCompact()
	}

	counts, err := h.reactionRepository.CountsForPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]FeedEntry, 0, len(items))
	for _, item := range items {
		post, ok := postMap[item.PostID]
		if !ok {
			// Post deleted between ranking and enrichment; skip it
			continue
		}
		entries = append(entries, FeedEntry{
			Post:        post,
			Author:      authorMap[post.UserID],
			RankScore:   item.RankScore,
			Explanation: item.Explanation,
			Factors:     item.Factors,
			Reactions:   counts[item.PostID],
		})
	}
	return entries, nil
}

func toRankingRows(items []ranking.FeedItem) []models.FeedRanking {
	rows := make([]models.FeedRanking, 0, len(items))
	for _, item := range items {
		factors, err := json.Marshal(item.Factors)
		if err != nil {
			factors = []byte("{}")
		}
		rows = append(rows, models.FeedRanking{
			PostID:      item.PostID,
			RankScore:   item.RankScore,
			Explanation: item.Explanation,
			Factors:     string(factors),
		})
	}
	return rows
}
