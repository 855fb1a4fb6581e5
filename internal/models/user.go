package models

import "time"

// User represents a platform member. Identity comes from Firebase; the row here
// carries profile fields and the reputation score used as a ranking input.
type User struct {
	ID              string    `json:"id" gorm:"primaryKey"` // Firebase UID
	Email           string    `json:"email" gorm:"index"`
	Username        string    `json:"username,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	ReputationScore float64   `json:"reputation_score" gorm:"index;default:0"` // 0-100, maintained elsewhere
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserCompact is the reduced author representation embedded in feed responses
type UserCompact struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// SyncUserRequest defines the request body for syncing the authenticated user's profile
type SyncUserRequest struct {
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Username    string `json:"username,omitempty" validate:"omitempty,min=2,max=50"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=100"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
