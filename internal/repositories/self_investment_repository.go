package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tickersocial/backend/internal/models"
	"gorm.io/gorm"
)

// SelfInvestmentRepository defines the interface for self-investment data operations
type SelfInvestmentRepository interface {
	CreateSelfInvestment(ctx context.Context, investment *models.SelfInvestment) error
	GetByUserID(ctx context.Context, userID string) ([]models.SelfInvestment, error)
	GetAll(ctx context.Context, skip, limit int) ([]models.SelfInvestment, error)
	GetTopROIs(ctx context.Context, limit int) ([]models.SelfInvestment, error)
	GetWorstROIs(ctx context.Context, limit int) ([]models.SelfInvestment, error)
}

// PostgresSelfInvestmentRepository implements SelfInvestmentRepository for PostgreSQL
type PostgresSelfInvestmentRepository struct {
	db *gorm.DB
}

// NewPostgresSelfInvestmentRepository creates a new PostgresSelfInvestmentRepository
func NewPostgresSelfInvestmentRepository(db *gorm.DB) *PostgresSelfInvestmentRepository {
	return &PostgresSelfInvestmentRepository{db: db}
}

// CreateSelfInvestment records a new self-investment
func (r *PostgresSelfInvestmentRepository) CreateSelfInvestment(ctx context.Context, investment *models.SelfInvestment) error {
	if investment.ID == "" {
		investment.ID = uuid.NewString()
	}
	if investment.InvestmentDate.IsZero() {
		investment.InvestmentDate = time.Now()
	}
	investment.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(investment).Error
}

// GetByUserID retrieves one member's self-investments, newest first
func (r *PostgresSelfInvestmentRepository) GetByUserID(ctx context.Context, userID string) ([]models.SelfInvestment, error) {
	var investments []models.SelfInvestment
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&investments).Error; err != nil {
		return nil, err
	}
	return investments, nil
}

// GetAll retrieves self-investments across all members, newest first
func (r *PostgresSelfInvestmentRepository) GetAll(ctx context.Context, skip, limit int) ([]models.SelfInvestment, error) {
	var investments []models.SelfInvestment
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(skip).Limit(limit).Find(&investments).Error; err != nil {
		return nil, err
	}
	return investments, nil
}

// GetTopROIs retrieves the best-returning investments that paid off. Rows
// without a reported ROI are excluded.
func (r *PostgresSelfInvestmentRepository) GetTopROIs(ctx context.Context, limit int) ([]models.SelfInvestment, error) {
	var investments []models.SelfInvestment
	err := r.db.WithContext(ctx).
		Where("outcome = ? AND roi IS NOT NULL", models.InvestmentOutcomePaidOff).
		Order("roi DESC").
		Limit(limit).
		Find(&investments).Error
	if err != nil {
		return nil, err
	}
	return investments, nil
}

// GetWorstROIs retrieves the worst-returning investments that did not pay off.
// Rows without a reported ROI are excluded.
func (r *PostgresSelfInvestmentRepository) GetWorstROIs(ctx context.Context, limit int) ([]models.SelfInvestment, error) {
	var investments []models.SelfInvestment
	err := r.db.WithContext(ctx).
		Where("outcome = ? AND roi IS NOT NULL", models.InvestmentOutcomeDidntPayOff).
		Order("roi ASC").
		Limit(limit).
		Find(&investments).Error
	if err != nil {
		return nil, err
	}
	return investments, nil
}
