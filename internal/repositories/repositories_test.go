package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickersocial/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostTag{},
		&models.Reaction{},
		&models.FeedRanking{},
		&models.SelfInvestment{},
	))
	return db
}

func createTestPost(t *testing.T, db *gorm.DB, userID string) *models.Post {
	t.Helper()
	repo := NewPostgresPostRepository(db)
	post := &models.Post{
		UserID:       userID,
		Ticker:       "AAPL",
		Content:      "Earnings look strong going into the quarter",
		AnalysisType: models.AnalysisTypeFundamental,
	}
	require.NoError(t, repo.CreatePost(context.Background(), post))
	return post
}

func TestToggleReactionSetSemantics(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresReactionRepository(db)
	ctx := context.Background()
	post := createTestPost(t, db, "author")

	// First toggle adds the membership
	applied, err := repo.ToggleReaction(ctx, post.ID, "reader", models.ReactionTypeBullish)
	require.NoError(t, err)
	assert.True(t, applied)

	reacted, err := repo.HasUserReacted(ctx, post.ID, "reader", models.ReactionTypeBullish)
	require.NoError(t, err)
	assert.True(t, reacted)

	// Second toggle of the same type removes it
	applied, err = repo.ToggleReaction(ctx, post.ID, "reader", models.ReactionTypeBullish)
	require.NoError(t, err)
	assert.False(t, applied)

	counts, err := repo.CountsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total())

	// Different types from the same user are independent memberships
	_, err = repo.ToggleReaction(ctx, post.ID, "reader", models.ReactionTypeLike)
	require.NoError(t, err)
	_, err = repo.ToggleReaction(ctx, post.ID, "reader", models.ReactionTypeInsightful)
	require.NoError(t, err)

	counts, err = repo.CountsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Like)
	assert.Equal(t, int64(1), counts.Insightful)
	assert.Equal(t, int64(0), counts.Bullish)
	assert.Equal(t, int64(2), counts.Total())
}

func TestCountsForPostsZeroFilled(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresReactionRepository(db)
	ctx := context.Background()

	reacted := createTestPost(t, db, "author")
	silent := createTestPost(t, db, "author")

	_, err := repo.ToggleReaction(ctx, reacted.ID, "u1", models.ReactionTypeLike)
	require.NoError(t, err)

	counts, err := repo.CountsForPosts(ctx, []string{reacted.ID, silent.ID})
	require.NoError(t, err)
	require.Len(t, counts, 2)

	assert.Equal(t, int64(1), counts[reacted.ID].Like)

	// The unreacted post still has an entry with all-zero counts
	zero, ok := counts[silent.ID]
	assert.True(t, ok)
	assert.Equal(t, int64(0), zero.Total())
}

func TestDeletePostCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	postRepo := NewPostgresPostRepository(db)
	tagRepo := NewPostgresTagRepository(db)
	reactionRepo := NewPostgresReactionRepository(db)
	rankingRepo := NewPostgresFeedRankingRepository(db)

	post := createTestPost(t, db, "author")

	require.NoError(t, tagRepo.ReplaceTagsForPost(ctx, post.ID, []models.PostTag{
		{TagType: models.TagTypeSector, TagValue: "technology", Confidence: 0.9},
	}))
	_, err := reactionRepo.ToggleReaction(ctx, post.ID, "reader", models.ReactionTypeBullish)
	require.NoError(t, err)
	require.NoError(t, rankingRepo.ReplaceForUser(ctx, "reader", []models.FeedRanking{
		{PostID: post.ID, RankScore: 0.7, Explanation: "relevant"},
	}))

	require.NoError(t, postRepo.DeletePost(ctx, post.ID))

	_, err = postRepo.GetPostByID(ctx, post.ID)
	assert.True(t, errors.Is(err, ErrPostNotFound))

	tags, err := tagRepo.GetTagsByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	counts, err := reactionRepo.CountsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total())

	rankings, err := rankingRepo.GetForUser(ctx, "reader", 0)
	require.NoError(t, err)
	assert.Empty(t, rankings)

	// Deleting again reports the missing post
	assert.True(t, errors.Is(postRepo.DeletePost(ctx, post.ID), ErrPostNotFound))
}

func TestSetAnalysisScores(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	ctx := context.Background()

	post := createTestPost(t, db, "author")
	assert.False(t, post.Analyzed())

	require.NoError(t, repo.SetAnalysisScores(ctx, post.ID, 0.8, 0.6, 0.9))

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, got.Analyzed())
	assert.Equal(t, 0.8, *got.QualityScore)
	assert.Equal(t, 0.6, *got.TimeSensitivityScore)
	assert.Equal(t, 0.9, *got.TickerRelevanceScore)

	// A post deleted before enrichment finishes is reported as missing
	err = repo.SetAnalysisScores(ctx, "no-such-post", 0.5, 0.5, 0.5)
	assert.True(t, errors.Is(err, ErrPostNotFound))
}

func TestGetRecentPostsOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresPostRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	ids := []string{"p-old", "p-mid", "p-new"}
	for i, id := range ids {
		post := &models.Post{
			ID:           id,
			UserID:       "author",
			Content:      "Post content long enough to be valid",
			AnalysisType: models.AnalysisTypeTechnical,
		}
		require.NoError(t, repo.CreatePost(ctx, post))
		require.NoError(t, db.Model(&models.Post{}).Where("id = ?", id).
			Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	posts, err := repo.GetRecentPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p-new", posts[0].ID)
	assert.Equal(t, "p-mid", posts[1].ID)
}

func TestGetReputationsClamped(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{ID: "u-neg", ReputationScore: -5}).Error)
	require.NoError(t, db.Create(&models.User{ID: "u-high", ReputationScore: 150}).Error)
	require.NoError(t, db.Create(&models.User{ID: "u-mid", ReputationScore: 62.5}).Error)

	reputations, err := repo.GetReputations(ctx, []string{"u-neg", "u-high", "u-mid", "u-missing"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, reputations["u-neg"])
	assert.Equal(t, 100.0, reputations["u-high"])
	assert.Equal(t, 62.5, reputations["u-mid"])
	_, present := reputations["u-missing"]
	assert.False(t, present)
}

func TestEnsureUserIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureUser(ctx, "uid-1"))
	require.NoError(t, repo.EnsureUser(ctx, "uid-1"))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", "uid-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertProfilePreservesReputation(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{ID: "uid-1", Email: "old@example.com", ReputationScore: 80}).Error)

	require.NoError(t, repo.UpsertProfile(ctx, &models.User{
		ID:          "uid-1",
		Email:       "new@example.com",
		Username:    "trader1",
		DisplayName: "Trader One",
	}))

	user, err := repo.GetUserByID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "trader1", user.Username)
	assert.Equal(t, 80.0, user.ReputationScore)
}

func TestReplaceTagsForPost(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresTagRepository(db)
	ctx := context.Background()
	post := createTestPost(t, db, "author")

	require.NoError(t, repo.ReplaceTagsForPost(ctx, post.ID, []models.PostTag{
		{TagType: models.TagTypeSector, TagValue: "technology", Confidence: 0.9},
		{TagType: models.TagTypeSentiment, TagValue: "bullish", Confidence: 0.8},
	}))

	// A re-run replaces the full set, not appends to it
	require.NoError(t, repo.ReplaceTagsForPost(ctx, post.ID, []models.PostTag{
		{TagType: models.TagTypeRiskProfile, TagValue: "speculative", Confidence: 0.7},
	}))

	tags, err := repo.GetTagsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, models.TagTypeRiskProfile, tags[0].TagType)
	assert.Equal(t, "speculative", tags[0].TagValue)
	assert.NotEmpty(t, tags[0].ID)
	assert.Equal(t, post.ID, tags[0].PostID)

	// Replacing with an empty set clears the previous run's tags
	require.NoError(t, repo.ReplaceTagsForPost(ctx, post.ID, nil))
	tags, err = repo.GetTagsByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestSelfInvestmentROILeaderboards(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresSelfInvestmentRepository(db)
	ctx := context.Background()

	roi := func(v float64) *float64 { return &v }
	rows := []models.SelfInvestment{
		{UserID: "u1", Title: "Options course", Category: models.InvestmentCategoryCourse, AmountInvested: 500, ROI: roi(300), Outcome: models.InvestmentOutcomePaidOff, Description: "Paid for itself within two months"},
		{UserID: "u2", Title: "CFA level one", Category: models.InvestmentCategoryCertification, AmountInvested: 1200, ROI: roi(50), Outcome: models.InvestmentOutcomePaidOff, Description: "Modest but real salary bump afterwards"},
		{UserID: "u1", Title: "Trading bootcamp", Category: models.InvestmentCategoryCoaching, AmountInvested: 3000, ROI: roi(-80), Outcome: models.InvestmentOutcomeDidntPayOff, Description: "Generic content, nothing actionable at all"},
		{UserID: "u3", Title: "Signal subscription", Category: models.InvestmentCategoryTool, AmountInvested: 900, ROI: roi(-40), Outcome: models.InvestmentOutcomeDidntPayOff, Description: "Signals lagged the market consistently"},
		// No reported ROI: excluded from both leaderboards
		{UserID: "u2", Title: "Valuation book", Category: models.InvestmentCategoryBook, AmountInvested: 40, Outcome: models.InvestmentOutcomePaidOff, Description: "Still working through the case studies"},
		{UserID: "u3", Title: "Screener tool", Category: models.InvestmentCategoryTool, AmountInvested: 200, Outcome: models.InvestmentOutcomeInProgress, Description: "Too early to judge the subscription"},
	}
	for i := range rows {
		require.NoError(t, repo.CreateSelfInvestment(ctx, &rows[i]))
	}

	top, err := repo.GetTopROIs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Options course", top[0].Title)
	assert.Equal(t, "CFA level one", top[1].Title)

	worst, err := repo.GetWorstROIs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, worst, 2)
	assert.Equal(t, "Trading bootcamp", worst[0].Title)
	assert.Equal(t, "Signal subscription", worst[1].Title)
}

func TestSelfInvestmentsByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresSelfInvestmentRepository(db)
	ctx := context.Background()

	mine := models.SelfInvestment{UserID: "u1", Title: "Python course", Category: models.InvestmentCategoryCourse, AmountInvested: 99, Outcome: models.InvestmentOutcomeInProgress, Description: "Learning to automate my backtests"}
	theirs := models.SelfInvestment{UserID: "u2", Title: "Macro newsletter", Category: models.InvestmentCategoryOther, AmountInvested: 150, Outcome: models.InvestmentOutcomeTooEarly, Description: "Weekly macro commentary subscription"}
	require.NoError(t, repo.CreateSelfInvestment(ctx, &mine))
	require.NoError(t, repo.CreateSelfInvestment(ctx, &theirs))

	assert.NotEmpty(t, mine.ID)
	assert.False(t, mine.InvestmentDate.IsZero())

	investments, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, investments, 1)
	assert.Equal(t, "Python course", investments[0].Title)
	assert.Nil(t, investments[0].ROI)

	all, err := repo.GetAll(ctx, 0, 20)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFeedRankingReplaceForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFeedRankingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceForUser(ctx, "viewer", []models.FeedRanking{
		{PostID: "p-stale", RankScore: 0.9, Explanation: "stale run"},
	}))
	require.NoError(t, repo.ReplaceForUser(ctx, "viewer", []models.FeedRanking{
		{PostID: "p-low", RankScore: 0.4, Explanation: "lower"},
		{PostID: "p-high", RankScore: 0.8, Explanation: "higher"},
	}))

	rankings, err := repo.GetForUser(ctx, "viewer", 0)
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "p-high", rankings[0].PostID)
	assert.Equal(t, "p-low", rankings[1].PostID)

	// Another user's snapshot is untouched and empty
	other, err := repo.GetForUser(ctx, "someone-else", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
