package models

import "time"

// Notification event kinds produced by the grading core.
const (
	NotificationTypeBadgeAwarded  = "badge_awarded"
	NotificationTypeGradingFailed = "grading_failed"
	NotificationTypeGeneric       = "generic"
)

// Notification is a user-facing event persisted for later retrieval and
// fanned out live to connected clients.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index;not null" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
