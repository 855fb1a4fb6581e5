package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tickersocial/backend/internal/models"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations.
// Reactions are membership facts with set semantics; counts are always
// derived by grouping rows at read time.
type ReactionRepository interface {
	ToggleReaction(ctx context.Context, postID, userID, reactionType string) (applied bool, err error)
	CountsForPost(ctx context.Context, postID string) (models.ReactionCounts, error)
	CountsForPosts(ctx context.Context, postIDs []string) (map[string]models.ReactionCounts, error)
	HasUserReacted(ctx context.Context, postID, userID, reactionType string) (bool, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// ToggleReaction applies the idempotent toggle: an existing (user, post, type)
// membership is removed, a missing one is inserted. The returned bool is true
// when the reaction was added, false when it was removed.
func (r *PostgresReactionRepository) ToggleReaction(ctx context.Context, postID, userID, reactionType string) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ? AND reaction_type = ?", postID, userID, reactionType).Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		applied = true
		return tx.Create(&models.Reaction{
			ID:           uuid.NewString(),
			PostID:       postID,
			UserID:       userID,
			ReactionType: reactionType,
			CreatedAt:    time.Now(),
		}).Error
	})
	return applied, err
}

// CountsForPost returns the zero-filled per-type rollup for a single post
func (r *PostgresReactionRepository) CountsForPost(ctx context.Context, postID string) (models.ReactionCounts, error) {
	counts, err := r.CountsForPosts(ctx, []string{postID})
	if err != nil {
		return models.ReactionCounts{}, err
	}
	return counts[postID], nil
}

type reactionCountRow struct {
	PostID       string
	ReactionType string
	Count        int64
}

// CountsForPosts returns the per-type rollup for every requested post id,
// zero-filled so callers never branch on missing keys
func (r *PostgresReactionRepository) CountsForPosts(ctx context.Context, postIDs []string) (map[string]models.ReactionCounts, error) {
	counts := make(map[string]models.ReactionCounts, len(postIDs))
	for _, id := range postIDs {
		counts[id] = models.ReactionCounts{}
	}
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []reactionCountRow
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Select("post_id, reaction_type, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id, reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		c := counts[row.PostID]
		c.Add(row.ReactionType, row.Count)
		counts[row.PostID] = c
	}
	return counts, nil
}

// HasUserReacted checks whether the (user, post, type) membership exists
func (r *PostgresReactionRepository) HasUserReacted(ctx context.Context, postID, userID, reactionType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("post_id = ? AND user_id = ? AND reaction_type = ?", postID, userID, reactionType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
