package models

import "time"

// Tag types produced by the analysis engine
const (
	TagTypeSector       = "sector"
	TagTypeCatalystType = "catalyst_type"
	TagTypeRiskProfile  = "risk_profile"
	TagTypeSentiment    = "sentiment"
)

// PostTag is a semantic annotation attached to a post by the analysis engine.
// Tags are never user-edited; a post may legitimately have zero tags.
type PostTag struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	PostID     string    `json:"post_id" gorm:"index;not null"`
	TagType    string    `json:"tag_type" gorm:"index;not null"`
	TagValue   string    `json:"tag_value" gorm:"not null"`
	Confidence float64   `json:"confidence"` // 0-1
	CreatedAt  time.Time `json:"created_at"`
}
