package models

import "time"

// Announcement display categories.
const (
	AnnouncementTypeInfo    = "info"
	AnnouncementTypeWarning = "warning"
	AnnouncementTypeSuccess = "success"
)

// Announcement is a message a teacher or administrator publishes to the
// whole organization.
type Announcement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Type      string    `gorm:"size:16;not null;default:info" json:"type"`
	CreatedBy uint      `gorm:"index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
