package dto

import (
	"encoding/json"
	"time"

	"github.com/misolmaz/codegrade-api/internal/models"
)

// SubmissionCreateRequest is the payload a student sends to submit code.
type SubmissionCreateRequest struct {
	AssignmentID uint   `json:"assignment_id" validate:"required,gt=0"`
	Code         string `json:"code" validate:"required,min=1"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint `query:"assignment_id"`
	StudentID    *uint `query:"student_id"`
}

// UnitTestResultResponse serializes a single oracle-reported test case.
type UnitTestResultResponse struct {
	TestName string `json:"testName"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// GradingResultResponse is the grading outcome attached to a submission.
type GradingResultResponse struct {
	Grade       int                      `json:"grade"`
	CodeQuality string                   `json:"codeQuality"`
	Feedback    string                   `json:"feedback"`
	Suggestions []string                 `json:"suggestions"`
	UnitTests   []UnitTestResultResponse `json:"unitTests"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint                  `json:"id"`
	AssignmentID  uint                  `json:"assignment_id"`
	StudentID     uint                  `json:"student_id"`
	StudentName   string                `json:"student_name"`
	Code          string                `json:"code,omitempty"`
	SubmittedAt   time.Time             `json:"submitted_at"`
	GradingResult GradingResultResponse `json:"grading_result"`
	NewBadges     []BadgeResponse       `json:"new_badges,omitempty"`
	Assignment    AssignmentLite        `json:"assignment"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission, includeCode bool) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		StudentName:  model.StudentName,
		SubmittedAt:  model.SubmittedAt,
		GradingResult: GradingResultResponse{
			Grade:       model.Grade,
			CodeQuality: model.CodeQuality,
			Feedback:    model.Feedback,
			Suggestions: []string{},
			UnitTests:   []UnitTestResultResponse{},
		},
	}

	if includeCode {
		response.Code = model.Code
	}

	if len(model.Suggestions) > 0 {
		var suggestions []string
		if err := json.Unmarshal(model.Suggestions, &suggestions); err == nil {
			response.GradingResult.Suggestions = suggestions
		}
	}

	if len(model.UnitTests) > 0 {
		var unitTests []UnitTestResultResponse
		if err := json.Unmarshal(model.UnitTests, &unitTests); err == nil {
			response.GradingResult.UnitTests = unitTests
		}
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:      model.Assignment.ID,
			Title:   model.Assignment.Title,
			DueDate: model.Assignment.DueDate,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission, includeCode bool) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission, includeCode))
	}

	return responses
}
