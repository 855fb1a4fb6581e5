package ranking

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/pkg/config"
)

// stubSources implements every data source interface from in-memory maps
type stubSources struct {
	posts       []models.Post
	reputations map[string]float64
	reactions   map[string]models.ReactionCounts
	tags        map[string][]models.PostTag
}

func (s *stubSources) GetRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if len(s.posts) > limit {
		return s.posts[:limit], nil
	}
	return s.posts, nil
}

func (s *stubSources) GetReputations(ctx context.Context, userIDs []string) (map[string]float64, error) {
	return s.reputations, nil
}

func (s *stubSources) CountsForPosts(ctx context.Context, postIDs []string) (map[string]models.ReactionCounts, error) {
	counts := make(map[string]models.ReactionCounts, len(postIDs))
	for _, id := range postIDs {
		counts[id] = s.reactions[id]
	}
	return counts, nil
}

func (s *stubSources) GetTagsForPosts(ctx context.Context, postIDs []string) (map[string][]models.PostTag, error) {
	return s.tags, nil
}

// fakeLLM is a canned llm.Client for ranking tests
type fakeLLM struct {
	configured bool
	response   string
	err        error
}

func (f *fakeLLM) Configured() bool { return f.configured }

func (f *fakeLLM) CompleteJSON(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func defaultRankingConfig() config.RankingConfig {
	return config.RankingConfig{
		QualityWeight:         0.30,
		FreshnessWeight:       0.20,
		ReputationWeight:      0.20,
		SentimentWeight:       0.15,
		TimeSensitivityWeight: 0.15,
		FreshnessWindowHours:  168,
		CandidateMultiplier:   2,
		DefaultLimit:          50,
	}
}

func newTestEngine(sources *stubSources, client *fakeLLM) *Engine {
	return NewEngine(sources, sources, sources, sources, client, defaultRankingConfig())
}

func floatPtr(f float64) *float64 { return &f }

func TestFreshnessBoundaries(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 1.0, Freshness(now, now, 168))
	assert.Equal(t, 0.5, Freshness(now.Add(-84*time.Hour), now, 168))
	assert.Equal(t, 0.0, Freshness(now.Add(-168*time.Hour), now, 168))
	assert.Equal(t, 0.0, Freshness(now.Add(-400*time.Hour), now, 168))

	// Monotonic non-increasing with age
	previous := 1.0
	for hours := 1; hours <= 200; hours += 7 {
		f := Freshness(now.Add(-time.Duration(hours)*time.Hour), now, 168)
		assert.LessOrEqual(t, f, previous)
		assert.GreaterOrEqual(t, f, 0.0)
		previous = f
	}
}

func TestCommunitySentiment(t *testing.T) {
	// No reactions yields 0, not NaN
	assert.Equal(t, 0.0, CommunitySentiment(models.ReactionCounts{}))

	// Only favorable reactions
	assert.Equal(t, 1.0, CommunitySentiment(models.ReactionCounts{Bullish: 3, Insightful: 1}))

	// Mixed: 2 favorable of 4 total
	counts := models.ReactionCounts{Like: 1, Bullish: 1, Bearish: 1, Insightful: 1}
	assert.Equal(t, 0.5, CommunitySentiment(counts))

	// Likes and bearish alone contribute nothing favorable
	assert.Equal(t, 0.0, CommunitySentiment(models.ReactionCounts{Like: 5, Bearish: 2}))
}

func TestFallbackScoreWeighting(t *testing.T) {
	engine := newTestEngine(&stubSources{}, &fakeLLM{})

	// All factors at their maximum sum to 1
	assert.InDelta(t, 1.0, engine.FallbackScore(1, 1, 100, 1, 1), 1e-9)

	// All factors zero
	assert.Equal(t, 0.0, engine.FallbackScore(0, 0, 0, 0, 0))

	// Reputation is normalized from its 0-100 scale
	assert.InDelta(t, 0.10, engine.FallbackScore(0, 0, 50, 0, 0), 1e-9)

	// Spot check a mixed input
	score := engine.FallbackScore(0.8, 0.9, 75, 0.85, 0.4)
	expected := 0.8*0.30 + 0.9*0.20 + 0.75*0.20 + 0.85*0.15 + 0.4*0.15
	assert.InDelta(t, expected, score, 1e-9)

	// Purity: same inputs, same output
	assert.Equal(t, score, engine.FallbackScore(0.8, 0.9, 75, 0.85, 0.4))
}

func TestRankFeedFallbackOrdering(t *testing.T) {
	now := time.Now()
	sources := &stubSources{
		posts: []models.Post{
			{ID: "p-low", UserID: "u1", Content: "Low quality take on the market", QualityScore: floatPtr(0.2), TimeSensitivityScore: floatPtr(0.2), TickerRelevanceScore: floatPtr(0.3), CreatedAt: now},
			{ID: "p-high", UserID: "u2", Content: "Deep dive into semiconductor capex cycles", QualityScore: floatPtr(0.9), TimeSensitivityScore: floatPtr(0.7), TickerRelevanceScore: floatPtr(0.8), CreatedAt: now},
			{ID: "p-mid", UserID: "u1", Content: "Earnings preview with some numbers", QualityScore: floatPtr(0.5), TimeSensitivityScore: floatPtr(0.5), TickerRelevanceScore: floatPtr(0.5), CreatedAt: now},
		},
		reputations: map[string]float64{"u1": 50, "u2": 50},
	}
	engine := newTestEngine(sources, &fakeLLM{configured: false})

	items, err := engine.RankFeed(context.Background(), "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "p-high", items[0].PostID)
	assert.Equal(t, "p-mid", items[1].PostID)
	assert.Equal(t, "p-low", items[2].PostID)

	// Scores are strictly ordered and every item carries an explanation
	assert.Greater(t, items[0].RankScore, items[1].RankScore)
	assert.Greater(t, items[1].RankScore, items[2].RankScore)
	for _, item := range items {
		assert.NotEmpty(t, item.Explanation)
	}
}

func TestRankFeedStableTieOrdering(t *testing.T) {
	now := time.Now()
	// Identical factors: candidate (recency) order must be preserved
	sources := &stubSources{
		posts: []models.Post{
			{ID: "p-first", UserID: "u1", Content: "Identical signal strength here", QualityScore: floatPtr(0.6), TimeSensitivityScore: floatPtr(0.6), TickerRelevanceScore: floatPtr(0.6), CreatedAt: now},
			{ID: "p-second", UserID: "u1", Content: "Identical signal strength there", QualityScore: floatPtr(0.6), TimeSensitivityScore: floatPtr(0.6), TickerRelevanceScore: floatPtr(0.6), CreatedAt: now},
			{ID: "p-third", UserID: "u1", Content: "Identical signal strength again", QualityScore: floatPtr(0.6), TimeSensitivityScore: floatPtr(0.6), TickerRelevanceScore: floatPtr(0.6), CreatedAt: now},
		},
		reputations: map[string]float64{"u1": 40},
	}
	engine := newTestEngine(sources, &fakeLLM{configured: false})

	items, err := engine.RankFeed(context.Background(), "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "p-first", items[0].PostID)
	assert.Equal(t, "p-second", items[1].PostID)
	assert.Equal(t, "p-third", items[2].PostID)
}

func TestRankFeedTruncatesToLimit(t *testing.T) {
	now := time.Now()
	sources := &stubSources{reputations: map[string]float64{"u1": 50}}
	for i := 0; i < 8; i++ {
		sources.posts = append(sources.posts, models.Post{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Content:   "Another candidate post in the pool",
			CreatedAt: now,
		})
	}
	engine := newTestEngine(sources, &fakeLLM{configured: false})

	items, err := engine.RankFeed(context.Background(), "viewer", 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestRankFeedEmptyPool(t *testing.T) {
	engine := newTestEngine(&stubSources{}, &fakeLLM{configured: false})

	items, err := engine.RankFeed(context.Background(), "viewer", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRankFeedModelItemsFilteredToPool(t *testing.T) {
	now := time.Now()
	sources := &stubSources{
		posts: []models.Post{
			{ID: "p-real", UserID: "u1", Content: "A genuine candidate post", CreatedAt: now},
		},
		reputations: map[string]float64{"u1": 50},
	}
	// The model hallucinates a post id outside the candidate pool
	client := &fakeLLM{configured: true, response: `{
		"items": [
			{"postId": "p-invented", "rankScore": 0.99, "explanation": "made up"},
			{"postId": "p-real", "rankScore": 0.7, "explanation": "High quality recent insight"}
		]
	}`}
	engine := newTestEngine(sources, client)

	items, err := engine.RankFeed(context.Background(), "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-real", items[0].PostID)
	assert.Equal(t, 0.7, items[0].RankScore)
}

func TestRankFeedModelFailureFallsBack(t *testing.T) {
	now := time.Now()
	sources := &stubSources{
		posts: []models.Post{
			{ID: "p1", UserID: "u1", Content: "Candidate post one for the feed", QualityScore: floatPtr(0.9), TimeSensitivityScore: floatPtr(0.5), TickerRelevanceScore: floatPtr(0.5), CreatedAt: now},
			{ID: "p2", UserID: "u1", Content: "Candidate post two for the feed", QualityScore: floatPtr(0.1), TimeSensitivityScore: floatPtr(0.5), TickerRelevanceScore: floatPtr(0.5), CreatedAt: now},
		},
		reputations: map[string]float64{"u1": 50},
	}
	engine := newTestEngine(sources, &fakeLLM{configured: true, response: "garbage"})

	items, err := engine.RankFeed(context.Background(), "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].PostID)
	assert.Equal(t, "p2", items[1].PostID)
}

func TestRankFeedUnanalyzedPostScore(t *testing.T) {
	// A lone unanalyzed post by a zero-reputation author with no reactions:
	// both nil scores default to 0.5, so the rank score reduces to
	// 0.5*quality_w + freshness*freshness_w + 0.5*time_sensitivity_w
	createdAt := time.Now().Add(-24 * time.Hour)
	sources := &stubSources{
		posts: []models.Post{
			{ID: "p-new", UserID: "u-new", Content: "Fresh post awaiting analysis", CreatedAt: createdAt},
		},
		reputations: map[string]float64{"u-new": 0},
	}
	engine := newTestEngine(sources, &fakeLLM{configured: false})

	items, err := engine.RankFeed(context.Background(), "viewer", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	freshness := Freshness(createdAt, time.Now(), 168)
	expected := 0.5*0.30 + freshness*0.20 + 0.5*0.15
	assert.InDelta(t, expected, items[0].RankScore, 0.001)
	assert.Equal(t, 0.5, items[0].Factors.QualityScore)
	assert.Equal(t, 0.0, items[0].Factors.UserReputation)
	assert.Equal(t, 0.0, items[0].Factors.CommunitySentiment)
}

func TestRankFeedZeroLimitUsesDefault(t *testing.T) {
	now := time.Now()
	sources := &stubSources{
		posts: []models.Post{
			{ID: "p1", UserID: "u1", Content: "Only post in the candidate pool", CreatedAt: now},
		},
		reputations: map[string]float64{"u1": 50},
	}
	engine := newTestEngine(sources, &fakeLLM{configured: false})

	items, err := engine.RankFeed(context.Background(), "viewer", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestBuildRankingPromptTruncatesContent(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	candidates := []candidate{
		{PostID: "p1", Content: string(long), QualityScore: 0.5},
	}

	prompt, err := buildRankingPrompt(candidates, 5)
	require.NoError(t, err)
	assert.Contains(t, prompt, string(long[:200])+"...")
	assert.NotContains(t, prompt, string(long[:201]))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	short := "日本株は強い"
	assert.Equal(t, short, truncate(short, 200))

	var b []rune
	for i := 0; i < 250; i++ {
		b = append(b, '株')
	}
	got := truncate(string(b), 200)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, string(b[:200])+"...", got)
	assert.Equal(t, 203, utf8.RuneCountInString(got))
}
