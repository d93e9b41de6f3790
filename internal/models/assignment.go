package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AudienceType selects which students an assignment is distributed to.
type AudienceType string

const (
	AudienceAll      AudienceType = "all"
	AudienceClass    AudienceType = "class"
	AudienceSpecific AudienceType = "specific"
)

// Difficulty levels a teacher can pick when publishing an assignment.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Assignment lifecycle states.
const (
	AssignmentStatusActive  = "active"
	AssignmentStatusExpired = "expired"
)

// Assignment represents a coding assignment published by a teacher.
type Assignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	DueDate        time.Time      `gorm:"not null" json:"due_date"`
	Language       string         `gorm:"size:32;not null" json:"language"`
	Level          string         `gorm:"size:16;not null;default:beginner" json:"level"`
	Status         string         `gorm:"size:16;not null;default:active" json:"status"`
	TargetType     string         `gorm:"size:16" json:"target_type"`
	TargetClass    string         `gorm:"size:16" json:"target_class"`
	TargetStudents datatypes.JSON `json:"target_students"`
	CreatedBy      uint           `gorm:"index" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Audience is the normalized, tagged audience specification of an assignment.
type Audience struct {
	Type           AudienceType
	Class          string
	StudentNumbers []string
}

// Audience decodes the stored targeting columns into a tagged variant.
// Records created before audience targeting existed carry no target type;
// the defaulting rule (missing type means "all") lives here and nowhere else.
func (a Assignment) Audience() Audience {
	audience := Audience{Type: AudienceType(a.TargetType), Class: a.TargetClass}

	switch audience.Type {
	case AudienceAll, AudienceClass, AudienceSpecific:
	default:
		audience.Type = AudienceAll
	}

	if len(a.TargetStudents) > 0 {
		var numbers []string
		if err := json.Unmarshal(a.TargetStudents, &numbers); err == nil {
			audience.StudentNumbers = numbers
		}
	}

	return audience
}

// Includes reports whether the audience names the given student number.
func (aud Audience) Includes(studentNumber string) bool {
	for _, number := range aud.StudentNumbers {
		if number == studentNumber {
			return true
		}
	}
	return false
}

// VisibleTo decides whether a student is an intended recipient of the
// assignment. A student who already submitted keeps access regardless of
// how the audience has since been changed. Teachers and administrators
// bypass this check entirely at the service layer.
func (a Assignment) VisibleTo(student Student, hasSubmitted bool) bool {
	if hasSubmitted {
		return true
	}

	audience := a.Audience()
	switch audience.Type {
	case AudienceAll:
		return true
	case AudienceClass:
		return student.ClassCode == audience.Class
	case AudienceSpecific:
		return audience.Includes(student.StudentNumber)
	default:
		return false
	}
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return !a.DueDate.After(reference)
}
