package models

import "time"

// StudentBadge records a badge the gamification engine has awarded.
// Awards are append-only; the engine never re-announces an earned badge.
type StudentBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_student_badge" json:"student_id"`
	BadgeName string    `gorm:"size:64;not null;uniqueIndex:idx_student_badge" json:"badge_name"`
	AwardedAt time.Time `json:"awarded_at"`
}
