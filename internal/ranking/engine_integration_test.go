package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickersocial/backend/internal/analysis"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/repositories"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newIntegrationDB(t *testing.T) *gorm.DB {
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
	))
	return db
}

// A new post flows through fallback enrichment into the fallback ranking over
// the real storage layer: scores land at 0.5/0.5/0.8, and with a
// zero-reputation author and no reactions the rank score reduces to
// 0.5*0.30 + freshness*0.20 + 0.5*0.15. A bullish reaction then lifts it by
// the full sentiment weight.
func TestRankFeedAfterFallbackEnrichment(t *testing.T) {
	db := newIntegrationDB(t)
	ctx := context.Background()
	postRepo := repositories.NewPostgresPostRepository(db)
	userRepo := repositories.NewPostgresUserRepository(db)
	tagRepo := repositories.NewPostgresTagRepository(db)
	reactionRepo := repositories.NewPostgresReactionRepository(db)

	require.NoError(t, userRepo.EnsureUser(ctx, "author"))

	post := &models.Post{
		UserID:       "author",
		Ticker:       "AAPL",
		Content:      "Watching the services segment closely this quarter",
		AnalysisType: models.AnalysisTypeFundamental,
	}
	require.NoError(t, postRepo.CreatePost(ctx, post))

	// Enrich without a model: the deterministic default analysis
	result := analysis.NewEngine(&fakeLLM{configured: false}).Analyze(ctx, post.Content, post.Ticker, post.AnalysisType)
	require.NoError(t, postRepo.SetAnalysisScores(ctx, post.ID, result.QualityScore, result.TimeSensitivityScore, result.TickerRelevanceScore))

	stored, err := postRepo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, stored.Analyzed())
	assert.Equal(t, 0.5, *stored.QualityScore)
	assert.Equal(t, 0.5, *stored.TimeSensitivityScore)
	assert.Equal(t, 0.8, *stored.TickerRelevanceScore)

	engine := NewEngine(postRepo, userRepo, reactionRepo, tagRepo, &fakeLLM{configured: false}, defaultRankingConfig())

	items, err := engine.RankFeed(ctx, "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	freshness := Freshness(stored.CreatedAt, time.Now(), 168)
	expected := 0.5*0.30 + freshness*0.20 + 0.5*0.15
	assert.InDelta(t, expected, items[0].RankScore, 0.001)
	assert.Equal(t, 0.5, items[0].Factors.QualityScore)
	assert.Equal(t, 0.0, items[0].Factors.UserReputation)
	assert.Equal(t, 0.0, items[0].Factors.CommunitySentiment)
	assert.Equal(t, 0.8, items[0].Factors.MarketRelevance)

	// A bullish reaction makes community sentiment 1, adding its full weight
	applied, err := reactionRepo.ToggleReaction(ctx, post.ID, "viewer", models.ReactionTypeBullish)
	require.NoError(t, err)
	require.True(t, applied)

	items, err = engine.RankFeed(ctx, "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, expected+0.15, items[0].RankScore, 0.001)
	assert.Equal(t, 1.0, items[0].Factors.CommunitySentiment)
}
