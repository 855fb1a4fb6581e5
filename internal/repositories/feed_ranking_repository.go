package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tickersocial/backend/internal/models"
	"gorm.io/gorm"
)

// FeedRankingRepository defines the interface for the ranking-cache rows.
// Rows are a regenerable snapshot of the latest ranking run, never a source
// of truth.
type FeedRankingRepository interface {
	ReplaceForUser(ctx context.Context, userID string, rankings []models.FeedRanking) error
	GetForUser(ctx context.Context, userID string, limit int) ([]models.FeedRanking, error)
}

// PostgresFeedRankingRepository implements FeedRankingRepository for PostgreSQL
type PostgresFeedRankingRepository struct {
	db *gorm.DB
}

// NewPostgresFeedRankingRepository creates a new PostgresFeedRankingRepository
func NewPostgresFeedRankingRepository(db *gorm.DB) *PostgresFeedRankingRepository {
	return &PostgresFeedRankingRepository{db: db}
}

// ReplaceForUser swaps the user's cached ranking rows for the latest run
func (r *PostgresFeedRankingRepository) ReplaceForUser(ctx context.Context, userID string, rankings []models.FeedRanking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.FeedRanking{}).Error; err != nil {
			return err
		}
		if len(rankings) == 0 {
			return nil
		}
		for i := range rankings {
			if rankings[i].ID == "" {
				rankings[i].ID = uuid.NewString()
			}
			rankings[i].UserID = userID
			rankings[i].CreatedAt = time.Now()
		}
		return tx.Create(&rankings).Error
	})
}

// GetForUser returns the user's cached ranking rows, best score first
func (r *PostgresFeedRankingRepository) GetForUser(ctx context.Context, userID string, limit int) ([]models.FeedRanking, error) {
	var rankings []models.FeedRanking
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("rank_score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rankings).Error; err != nil {
		return nil, err
	}
	return rankings, nil
}
