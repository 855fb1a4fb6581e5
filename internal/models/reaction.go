package models

import "time"

// Reaction types users can apply to a post
const (
	ReactionTypeLike       = "like"
	ReactionTypeBullish    = "bullish"
	ReactionTypeBearish    = "bearish"
	ReactionTypeInsightful = "insightful"
)

// Reaction is a (user, post, type) membership fact. At most one row exists per
// combination; re-submitting the same reaction removes it (set semantics).
type Reaction struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	PostID       string    `json:"post_id" gorm:"not null;uniqueIndex:idx_user_post_reaction"`
	UserID       string    `json:"user_id" gorm:"index;not null;uniqueIndex:idx_user_post_reaction"`
	ReactionType string    `json:"reaction_type" gorm:"not null;uniqueIndex:idx_user_post_reaction"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReactionCounts is the per-type rollup for a single post. Counts are always
// derived from membership rows at read time, never stored.
type ReactionCounts struct {
	Like       int64 `json:"like"`
	Bullish    int64 `json:"bullish"`
	Bearish    int64 `json:"bearish"`
	Insightful int64 `json:"insightful"`
}

// Total returns the total number of reactions across all types
func (c ReactionCounts) Total() int64 {
	return c.Like + c.Bullish + c.Bearish + c.Insightful
}

// Add adds n reactions of the given type to the rollup
func (c *ReactionCounts) Add(reactionType string, n int64) {
	switch reactionType {
	case ReactionTypeLike:
		c.Like += n
	case ReactionTypeBullish:
		c.Bullish += n
	case ReactionTypeBearish:
		c.Bearish += n
	case ReactionTypeInsightful:
		c.Insightful += n
	}
}

// ToggleReactionRequest defines the request body for toggling a reaction on a post
type ToggleReactionRequest struct {
	ReactionType string `json:"reaction_type" validate:"required,oneof=like bullish bearish insightful"`
}
