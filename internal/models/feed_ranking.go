package models

import "time"

// FeedRanking is a cached, explainable ranking result for one (user, post)
// pair. Rows are regenerable at any time from posts, tags, reactions and
// reputations; they are a snapshot, not a source of truth.
type FeedRanking struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	PostID      string    `json:"post_id" gorm:"index;not null"`
	RankScore   float64   `json:"rank_score" gorm:"index"`
	Explanation string    `json:"explanation"`
	Factors     string    `json:"factors"` // JSON-encoded factor breakdown
	CreatedAt   time.Time `json:"created_at"`
}
