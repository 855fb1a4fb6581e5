package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/tickersocial/backend/internal/llm"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/pkg/config"
)

const rankingSystemPrompt = "You are a feed ranking AI. Return valid JSON object with 'items' array."

const rankingMaxTokens = 1000

// unanalyzed posts score a neutral 0.5 on every derived dimension
const defaultScore = 0.5

// Factors is the structured breakdown of why a post ranked where it did
type Factors struct {
	QualityScore       float64 `json:"qualityScore"`
	Freshness          float64 `json:"freshness"`
	UserReputation     float64 `json:"userReputation"`
	CommunitySentiment float64 `json:"communitySentiment"`
	MarketRelevance    float64 `json:"marketRelevance"`
}

// FeedItem is one ranked entry of a personalized feed
type FeedItem struct {
	PostID      string  `json:"postId"`
	RankScore   float64 `json:"rankScore"`
	Explanation string  `json:"explanation"`
	Factors     Factors `json:"factors"`
}

// PostSource provides the recency-biased candidate pool
type PostSource interface {
	GetRecentPosts(ctx context.Context, limit int) ([]models.Post, error)
}

// ReputationSource provides author reputation scores for a batch of user ids
type ReputationSource interface {
	GetReputations(ctx context.Context, userIDs []string) (map[string]float64, error)
}

// ReactionSource provides zero-filled reaction rollups for a batch of post ids
type ReactionSource interface {
	CountsForPosts(ctx context.Context, postIDs []string) (map[string]models.ReactionCounts, error)
}

// TagSource provides semantic tags for a batch of post ids
type TagSource interface {
	GetTagsForPosts(ctx context.Context, postIDs []string) (map[string][]models.PostTag, error)
}

// candidate is a post plus every signal the ranking formula consumes
type candidate struct {
	PostID             string
	Content            string
	Ticker             string
	QualityScore       float64
	TimeSensitivity    float64
	TickerRelevance    float64
	UserReputation     float64
	Freshness          float64
	CommunitySentiment float64
	Reactions          models.ReactionCounts
	Tags               []models.PostTag
}

// Engine produces ranked, explained feeds. It prefers the language model and
// degrades to the deterministic weighted formula; the formula path is the
// authoritative, reproducible behavior.
type Engine struct {
	posts       PostSource
	reputations ReputationSource
	reactions   ReactionSource
	tags        TagSource
	llmClient   llm.Client
	cfg         config.RankingConfig
}

// NewEngine creates a new feed ranking engine
func NewEngine(posts PostSource, reputations ReputationSource, reactions ReactionSource, tags TagSource, llmClient llm.Client, cfg config.RankingConfig) *Engine {
	return &Engine{
		posts:       posts,
		reputations: reputations,
		reactions:   reactions,
		tags:        tags,
		llmClient:   llmClient,
		cfg:         cfg,
	}
}

// RankFeed returns up to limit posts for the user, ordered by descending rank
// score, each carrying an explanation and a factor breakdown
func (e *Engine) RankFeed(ctx context.Context, userID string, limit int) ([]FeedItem, error) {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	candidates, err := e.gatherCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []FeedItem{}, nil
	}

	if e.llmClient.Configured() {
		if items := e.rankWithModel(ctx, candidates, limit); len(items) > 0 {
			return items, nil
		}
	}

	return e.rankAlgorithmic(candidates, limit), nil
}

// gatherCandidates assembles the candidate pool: recent posts plus batched
// reputation, reaction and tag lookups. The steps have no cross-step
// atomicity; a reaction landing mid-gather is acceptable.
func (e *Engine) gatherCandidates(ctx context.Context, limit int) ([]candidate, error) {
	multiplier := e.cfg.CandidateMultiplier
	if multiplier < 1 {
		multiplier = 2
	}

	posts, err := e.posts.GetRecentPosts(ctx, limit*multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to gather candidate posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, nil
	}

	postIDs := make([]string, len(posts))
	userIDSet := make(map[string]bool)
	for i, p := range posts {
		postIDs[i] = p.ID
		userIDSet[p.UserID] = true
	}
	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	reputations, err := e.reputations.GetReputations(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to gather reputations: %w", err)
	}

	reactionCounts, err := e.reactions.CountsForPosts(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to gather reaction counts: %w", err)
	}

	tagsByPost, err := e.tags.GetTagsForPosts(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to gather tags: %w", err)
	}

	now := time.Now()
	candidates := make([]candidate, 0, len(posts))
	for _, p := range posts {
		counts := reactionCounts[p.ID]
		candidates = append(candidates, candidate{
			PostID:             p.ID,
			Content:            p.Content,
			Ticker:             p.Ticker,
			QualityScore:       scoreOrDefault(p.QualityScore),
			TimeSensitivity:    scoreOrDefault(p.TimeSensitivityScore),
			TickerRelevance:    scoreOrDefault(p.TickerRelevanceScore),
			UserReputation:     reputations[p.UserID],
			Freshness:          Freshness(p.CreatedAt, now, e.cfg.FreshnessWindowHours),
			CommunitySentiment: CommunitySentiment(counts),
			Reactions:          counts,
			Tags:               tagsByPost[p.ID],
		})
	}
	return candidates, nil
}

// rankWithModel asks the language model to rank the pool. Any failure, and any
// returned item whose post id is not in the pool, is discarded; an empty
// result signals the caller to use the algorithmic path.
func (e *Engine) rankWithModel(ctx context.Context, candidates []candidate, limit int) []FeedItem {
	prompt, err := buildRankingPrompt(candidates, limit)
	if err != nil {
		log.Printf("Error building ranking prompt: %v", err)
		return nil
	}

	raw, err := e.llmClient.CompleteJSON(ctx, rankingSystemPrompt, prompt, rankingMaxTokens)
	if err != nil {
		log.Printf("Error ranking feed with model: %v", err)
		return nil
	}

	var parsed struct {
		Items []FeedItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("Error parsing ranking response: %v", err)
		return nil
	}

	// Accept only post ids drawn from the candidate pool
	pool := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		pool[c.PostID] = true
	}
	items := make([]FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if pool[item.PostID] {
			items = append(items, item)
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// rankAlgorithmic is the deterministic fallback: a pure weighted sum over the
// five factors, stable-sorted descending and truncated to limit
func (e *Engine) rankAlgorithmic(candidates []candidate, limit int) []FeedItem {
	items := make([]FeedItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, FeedItem{
			PostID:      c.PostID,
			RankScore:   e.FallbackScore(c.QualityScore, c.Freshness, c.UserReputation, c.CommunitySentiment, c.TimeSensitivity),
			Explanation: fmt.Sprintf("Ranked by quality (%.0f%%), freshness and community engagement", c.QualityScore*100),
			Factors: Factors{
				QualityScore:       c.QualityScore,
				Freshness:          c.Freshness,
				UserReputation:     c.UserReputation,
				CommunitySentiment: c.CommunitySentiment,
				MarketRelevance:    c.TickerRelevance,
			},
		})
	}

	// Stable sort: ties keep candidate (recency) order
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RankScore > items[j].RankScore
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// FallbackScore computes the deterministic weighted rank score. Reputation is
// on a 0-100 scale and normalized here; everything else is already [0,1].
func (e *Engine) FallbackScore(quality, freshness, reputation, sentiment, timeSensitivity float64) float64 {
	return quality*e.cfg.QualityWeight +
		freshness*e.cfg.FreshnessWeight +
		(reputation/100)*e.cfg.ReputationWeight +
		sentiment*e.cfg.SentimentWeight +
		timeSensitivity*e.cfg.TimeSensitivityWeight
}

// Freshness is the linear time-decay factor: 1 at creation, 0 at windowHours
// and beyond, never negative
func Freshness(createdAt, now time.Time, windowHours float64) float64 {
	if windowHours <= 0 {
		windowHours = 168
	}
	hoursAgo := now.Sub(createdAt).Hours()
	f := 1 - hoursAgo/windowHours
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// CommunitySentiment is the share of favorable-leaning reactions. The
// denominator is floored at 1 so an unreacted post yields 0, not NaN.
func CommunitySentiment(counts models.ReactionCounts) float64 {
	total := counts.Total()
	if total < 1 {
		total = 1
	}
	return float64(counts.Bullish+counts.Insightful) / float64(total)
}

func scoreOrDefault(score *float64) float64 {
	if score == nil {
		return defaultScore
	}
	return *score
}

// rankedPost is the per-candidate payload sent to the ranking model
type rankedPost struct {
	PostID             string  `json:"postId"`
	Content            string  `json:"content"`
	Ticker             string  `json:"ticker,omitempty"`
	QualityScore       float64 `json:"qualityScore"`
	Freshness          float64 `json:"freshness"`
	UserReputation     float64 `json:"userReputation"`
	CommunitySentiment float64 `json:"communitySentiment"`
	TimeSensitivity    float64 `json:"timeSensitivity"`
}

func buildRankingPrompt(candidates []candidate, limit int) (string, error) {
	payload := make([]rankedPost, 0, len(candidates))
	for _, c := range candidates {
		payload = append(payload, rankedPost{
			PostID:             c.PostID,
			Content:            truncate(c.Content, 200),
			Ticker:             c.Ticker,
			QualityScore:       c.QualityScore,
			Freshness:          c.Freshness,
			UserReputation:     c.UserReputation,
			CommunitySentiment: c.CommunitySentiment,
			TimeSensitivity:    c.TimeSensitivity,
		})
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Rank these investment posts for a user feed. Consider:
- Quality score (0-1)
- Freshness (recent posts are better)
- User reputation (0-100)
- Community sentiment (bullish reactions)
- Time sensitivity (urgent opportunities)

Return JSON object with "items" array containing top %d posts:
{
  "items": [
    {
      "postId": "post_id",
      "rankScore": 0.85,
      "explanation": "Why this post is relevant",
      "factors": {
        "qualityScore": 0.8,
        "freshness": 0.9,
        "userReputation": 75,
        "communitySentiment": 0.85,
        "marketRelevance": 0.7
      }
    }
  ]
}

Posts to rank:
%s`, limit, encoded), nil
}

// truncate shortens to max characters on a rune boundary so multibyte
// content never reaches the prompt as a mangled sequence
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
