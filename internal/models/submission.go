package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission represents a student's graded code submission for an
// assignment. A submission only exists once the grading oracle has
// accepted it; failed grading attempts are never persisted. The composite
// unique index enforces the at-most-one-submission-per-pair invariant at
// the storage layer, independent of any caller-side guard.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;uniqueIndex:idx_submission_slot" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;uniqueIndex:idx_submission_slot" json:"student_id"`
	StudentName  string         `gorm:"size:255" json:"student_name"`
	Code         string         `gorm:"type:text;not null" json:"code"`
	SubmittedAt  time.Time      `gorm:"not null" json:"submitted_at"`
	Grade        int            `gorm:"not null" json:"grade"`
	CodeQuality  string         `gorm:"size:64" json:"code_quality"`
	Feedback     string         `gorm:"type:text" json:"feedback"`
	Suggestions  datatypes.JSON `json:"suggestions"`
	UnitTests    datatypes.JSON `json:"unit_tests"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
