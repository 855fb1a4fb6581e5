package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tickersocial/backend/internal/models"
	"gorm.io/gorm"
)

// ErrPostNotFound is returned when no post row exists for the requested id
var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	GetRecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	GetPostsByUserID(ctx context.Context, userID string, skip, limit int) ([]models.Post, error)
	GetPostsByTicker(ctx context.Context, ticker string, skip, limit int) ([]models.Post, error)
	SetAnalysisScores(ctx context.Context, id string, quality, timeSensitivity, tickerRelevance float64) error
	DeletePost(ctx context.Context, id string) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost creates a new post with nil derived scores
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(post).Error
}

// GetPostByID retrieves a post by ID
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByIDs retrieves posts for a batch of ids; missing ids are skipped
func (r *PostgresPostRepository) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	var posts []models.Post
	if len(ids) == 0 {
		return posts, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetRecentPosts retrieves the most recent posts system-wide, newest first
func (r *PostgresPostRepository) GetRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostsByUserID retrieves posts by a specific user, newest first
func (r *PostgresPostRepository) GetPostsByUserID(ctx context.Context, userID string, skip, limit int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Offset(skip).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostsByTicker retrieves posts tagged with a ticker, newest first
func (r *PostgresPostRepository) GetPostsByTicker(ctx context.Context, ticker string, skip, limit int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).Where("ticker = ?", ticker).Order("created_at DESC").Offset(skip).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// SetAnalysisScores attaches the derived scores produced by the analysis
// engine. All three are written together so a post is never partially scored.
func (r *PostgresPostRepository) SetAnalysisScores(ctx context.Context, id string, quality, timeSensitivity, tickerRelevance float64) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quality_score":          quality,
		"time_sensitivity_score": timeSensitivity,
		"ticker_relevance_score": tickerRelevance,
		"updated_at":             time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Post was deleted before enrichment finished; nothing to attach to
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post and all of its dependent rows (tags, reactions,
// feed rankings) in a single transaction, so orphans can never survive
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.FeedRanking{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}
