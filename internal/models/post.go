package models

import "time"

// Analysis types a post can be labeled with on submission
const (
	AnalysisTypeTechnical   = "technical"
	AnalysisTypeFundamental = "fundamental"
	AnalysisTypeMacro       = "macro"
	AnalysisTypeCatalyst    = "catalyst"
	AnalysisTypeRiskWarning = "risk_warning"
)

// Post represents an investment insight post. The three derived scores are nil
// until the analysis engine has enriched the post; readers must treat a post
// with nil scores as a normal, not-yet-analyzed state.
type Post struct {
	ID                   string    `json:"id" gorm:"primaryKey"`
	UserID               string    `json:"user_id" gorm:"index;not null"`
	Ticker               string    `json:"ticker,omitempty" gorm:"index"` // uppercase symbol, optional
	Content              string    `json:"content" gorm:"not null"`
	AnalysisType         string    `json:"analysis_type" gorm:"not null"`
	QualityScore         *float64  `json:"quality_score,omitempty"`          // 0-1
	TimeSensitivityScore *float64  `json:"time_sensitivity_score,omitempty"` // 0-1
	TickerRelevanceScore *float64  `json:"ticker_relevance_score,omitempty"` // 0-1
	CreatedAt            time.Time `json:"created_at" gorm:"index"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Analyzed reports whether the post has been enriched with derived scores
func (p *Post) Analyzed() bool {
	return p.QualityScore != nil && p.TimeSensitivityScore != nil && p.TickerRelevanceScore != nil
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Ticker       string `json:"ticker,omitempty" validate:"omitempty,max=10,alphanum"`
	Content      string `json:"content" validate:"required,min=10,max=5000"`
	AnalysisType string `json:"analysis_type" validate:"required,oneof=technical fundamental macro catalyst risk_warning"`
}
