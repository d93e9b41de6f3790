package dto

import (
	"time"

	"github.com/misolmaz/codegrade-api/internal/models"
)

// AssignmentCreateRequest is the payload a teacher sends to publish an assignment.
type AssignmentCreateRequest struct {
	Title          string   `json:"title" validate:"required,min=3,max=255"`
	Description    string   `json:"description" validate:"required"`
	DueDate        string   `json:"due_date" validate:"required"`
	Language       string   `json:"language" validate:"required"`
	Level          string   `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	TargetType     string   `json:"target_type" validate:"omitempty,oneof=all class specific"`
	TargetClass    string   `json:"target_class" validate:"omitempty,max=16"`
	TargetStudents []string `json:"target_students" validate:"omitempty,dive,min=1"`
}

// AssignmentUpdateRequest mutates an existing assignment. All fields optional.
type AssignmentUpdateRequest struct {
	Title          *string   `json:"title" validate:"omitempty,min=3,max=255"`
	Description    *string   `json:"description"`
	DueDate        *string   `json:"due_date"`
	Language       *string   `json:"language"`
	Level          *string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	TargetType     *string   `json:"target_type" validate:"omitempty,oneof=all class specific"`
	TargetClass    *string   `json:"target_class" validate:"omitempty,max=16"`
	TargetStudents *[]string `json:"target_students"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
// Countdown is recomputed on every request and Submitted reflects the
// viewing student's own ledger slot.
type AssignmentResponse struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	DueDate        time.Time        `json:"due_date"`
	Language       string           `json:"language"`
	Level          string           `json:"level"`
	Status         string           `json:"status"`
	TargetType     string           `json:"target_type"`
	TargetClass    string           `json:"target_class,omitempty"`
	TargetStudents []string         `json:"target_students,omitempty"`
	Countdown      models.Countdown `json:"countdown"`
	Submitted      bool             `json:"submitted"`
	SubmissionID   *uint            `json:"submission_id,omitempty"`
	CreatedBy      uint             `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO,
// evaluating the deadline against the supplied reference instant.
func NewAssignmentResponse(model models.Assignment, now time.Time) AssignmentResponse {
	audience := model.Audience()

	status := model.Status
	if model.IsPastDue(now) {
		status = models.AssignmentStatusExpired
	}

	return AssignmentResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		DueDate:        model.DueDate,
		Language:       model.Language,
		Level:          model.Level,
		Status:         status,
		TargetType:     string(audience.Type),
		TargetClass:    audience.Class,
		TargetStudents: audience.StudentNumbers,
		Countdown:      model.Countdown(now),
		CreatedBy:      model.CreatedBy,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, now time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, now))
	}

	return responses
}
