package models

import "time"

// Categories of personal-development spending
const (
	InvestmentCategoryCourse        = "course"
	InvestmentCategoryCertification = "certification"
	InvestmentCategoryBook          = "book"
	InvestmentCategoryTool          = "tool"
	InvestmentCategoryCoaching      = "coaching"
	InvestmentCategoryOther         = "other"
)

// Outcomes a self-investment can be reported with
const (
	InvestmentOutcomePaidOff     = "paid_off"
	InvestmentOutcomeDidntPayOff = "didnt_pay_off"
	InvestmentOutcomeInProgress  = "in_progress"
	InvestmentOutcomeTooEarly    = "too_early"
)

// SelfInvestment is a member's record of money spent on their own development
// (a course, book, coaching) and how it worked out. ROI is a percentage and
// stays nil until the member reports one.
type SelfInvestment struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index;not null"`
	Title          string    `json:"title" gorm:"not null"`
	Category       string    `json:"category" gorm:"index;not null"`
	AmountInvested float64   `json:"amount_invested"`
	ROI            *float64  `json:"roi,omitempty"`
	Outcome        string    `json:"outcome" gorm:"index;not null"`
	Description    string    `json:"description" gorm:"not null"`
	InvestmentDate time.Time `json:"investment_date"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

// CreateSelfInvestmentRequest defines the request body for recording a self-investment
type CreateSelfInvestmentRequest struct {
	Title          string   `json:"title" validate:"required,min=1,max=200"`
	Category       string   `json:"category" validate:"required,oneof=course certification book tool coaching other"`
	AmountInvested float64  `json:"amount_invested" validate:"gte=0"`
	ROI            *float64 `json:"roi,omitempty"`
	Outcome        string   `json:"outcome" validate:"required,oneof=paid_off didnt_pay_off in_progress too_early"`
	Description    string   `json:"description" validate:"required,min=10,max=2000"`
	InvestmentDate string   `json:"investment_date,omitempty"` // RFC 3339; defaults to submission time
}
