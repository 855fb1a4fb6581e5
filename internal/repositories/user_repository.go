package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/tickersocial/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserNotFound is returned when no user row exists for the requested id
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	EnsureUser(ctx context.Context, id string) error
	UpsertProfile(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetReputations(ctx context.Context, userIDs []string) (map[string]float64, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureUser creates a bare user row for the given identity if none exists.
// Posts and reactions reference users, so a row must exist before first write
// even if the profile has not been synced yet.
func (r *PostgresUserRepository) EnsureUser(ctx context.Context, id string) error {
	user := models.User{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
}

// UpsertProfile creates or updates the profile fields supplied by the identity
// provider. The reputation score is never touched here; it is maintained
// elsewhere and only read by this system.
func (r *PostgresUserRepository) UpsertProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "username", "display_name", "avatar_url", "updated_at"}),
	}).Create(user).Error
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs retrieves users for a batch of ids; missing ids are skipped
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetReputations returns the reputation score per user id, clamped to [0,100].
// Unknown ids are simply absent; callers treat missing entries as 0.
func (r *PostgresUserRepository) GetReputations(ctx context.Context, userIDs []string) (map[string]float64, error) {
	reputations := make(map[string]float64, len(userIDs))
	if len(userIDs) == 0 {
		return reputations, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "reputation_score").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		score := u.ReputationScore
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		reputations[u.ID] = score
	}
	return reputations, nil
}
