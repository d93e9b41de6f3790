package models

import "time"

// Roles resolved by the identity provider. The API never authenticates;
// it only consumes the role carried in the token claims.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Student represents a learner that can receive and submit assignments.
// Student records are sourced from the identity provider and treated as
// read-only by the grading core.
type Student struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FullName       string    `gorm:"size:255;not null" json:"full_name"`
	StudentNumber  string    `gorm:"size:32;index" json:"student_number"`
	ClassCode      string    `gorm:"size:16;index" json:"class_code"`
	OrganizationID uint      `gorm:"index" json:"organization_id"`
	AvatarURL      string    `gorm:"size:512" json:"avatar_url"`
	Role           string    `gorm:"size:16;not null;default:student" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsStaff reports whether the student record belongs to a teacher or administrator.
func (s Student) IsStaff() bool {
	return s.Role == RoleTeacher || s.Role == RoleAdmin
}
