package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tickersocial/backend/internal/models"
	"gorm.io/gorm"
)

// TagRepository defines the interface for semantic tag data operations
type TagRepository interface {
	ReplaceTagsForPost(ctx context.Context, postID string, tags []models.PostTag) error
	GetTagsByPostID(ctx context.Context, postID string) ([]models.PostTag, error)
	GetTagsForPosts(ctx context.Context, postIDs []string) (map[string][]models.PostTag, error)
}

// PostgresTagRepository implements TagRepository for PostgreSQL
type PostgresTagRepository struct {
	db *gorm.DB
}

// NewPostgresTagRepository creates a new PostgresTagRepository
func NewPostgresTagRepository(db *gorm.DB) *PostgresTagRepository {
	return &PostgresTagRepository{db: db}
}

// ReplaceTagsForPost swaps the full tag set for a post in one transaction.
// Enrichment may run more than once for the same post; replacement keeps the
// tag set consistent with the latest analysis.
func (r *PostgresTagRepository) ReplaceTagsForPost(ctx context.Context, postID string, tags []models.PostTag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		for i := range tags {
			if tags[i].ID == "" {
				tags[i].ID = uuid.NewString()
			}
			tags[i].PostID = postID
			tags[i].CreatedAt = time.Now()
		}
		return tx.Create(&tags).Error
	})
}

// GetTagsByPostID retrieves all tags attached to a single post
func (r *PostgresTagRepository) GetTagsByPostID(ctx context.Context, postID string) ([]models.PostTag, error) {
	var tags []models.PostTag
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetTagsForPosts retrieves tags for a batch of post ids, grouped by post.
// Posts without tags are simply absent from the map.
func (r *PostgresTagRepository) GetTagsForPosts(ctx context.Context, postIDs []string) (map[string][]models.PostTag, error) {
	grouped := make(map[string][]models.PostTag, len(postIDs))
	if len(postIDs) == 0 {
		return grouped, nil
	}

	var tags []models.PostTag
	if err := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	for _, tag := range tags {
		grouped[tag.PostID] = append(grouped[tag.PostID], tag)
	}
	return grouped, nil
}
