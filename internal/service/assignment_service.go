package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist
// or is not visible to the requesting student.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrStudentNotFound indicates the authenticated subject has no student record.
var ErrStudentNotFound = errors.New("student not found")

// ErrInvalidPayload marks payloads that pass struct validation but break a
// domain rule, like a past due date or incomplete audience targeting.
var ErrInvalidPayload = errors.New("invalid assignment payload")

// AssignmentService exposes assignment domain use cases. Listing and
// fetching are viewer-aware: staff see every assignment, students see only
// what the audience rules distribute to them, with their own submission
// state and a freshly evaluated countdown attached.
type AssignmentService interface {
	ListForViewer(ctx context.Context, viewerID uint) ([]dto.AssignmentResponse, error)
	GetForViewer(ctx context.Context, id, viewerID uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, creatorID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, viewerID, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, viewerID, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	students    repository.StudentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, submissionRepo repository.SubmissionRepository, studentRepo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		submissions: submissionRepo,
		students:    studentRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) ListForViewer(ctx context.Context, viewerID uint) ([]dto.AssignmentResponse, error) {
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if viewer.IsStaff() {
		return dto.NewAssignmentResponseSlice(assignments, now), nil
	}

	submitted, err := s.submittedSlots(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		submissionID, hasSubmitted := submitted[assignment.ID]
		if !assignment.VisibleTo(viewer, hasSubmitted) {
			continue
		}

		response := dto.NewAssignmentResponse(assignment, now)
		response.Submitted = hasSubmitted
		if hasSubmitted {
			id := submissionID
			response.SubmissionID = &id
		}
		responses = append(responses, response)
	}

	return responses, nil
}

func (s *assignmentService) GetForViewer(ctx context.Context, id, viewerID uint) (dto.AssignmentResponse, error) {
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	now := s.now()

	if viewer.IsStaff() {
		return dto.NewAssignmentResponse(assignment, now), nil
	}

	submitted, err := s.submittedSlots(ctx, viewer.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	submissionID, hasSubmitted := submitted[assignment.ID]
	if !assignment.VisibleTo(viewer, hasSubmitted) {
		// Hidden assignments are indistinguishable from missing ones.
		return dto.AssignmentResponse{}, ErrAssignmentNotFound
	}

	response := dto.NewAssignmentResponse(assignment, now)
	response.Submitted = hasSubmitted
	if hasSubmitted {
		sid := submissionID
		response.SubmissionID = &sid
	}

	return response, nil
}

func (s *assignmentService) Create(ctx context.Context, creatorID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: invalid due date", ErrInvalidPayload)
	}

	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: due date must be in the future", ErrInvalidPayload)
	}

	if err := validateTargeting(payload.TargetType, payload.TargetClass, payload.TargetStudents); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     dueDate,
		Language:    payload.Language,
		Level:       payload.Level,
		Status:      models.AssignmentStatusActive,
		TargetType:  payload.TargetType,
		TargetClass: payload.TargetClass,
		CreatedBy:   creatorID,
	}

	if assignment.TargetType == "" {
		assignment.TargetType = string(models.AudienceAll)
	}

	if payload.TargetStudents != nil {
		encoded, err := json.Marshal(payload.TargetStudents)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid target students: %w", err)
		}
		assignment.TargetStudents = datatypes.JSON(encoded)
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("target_type", assignment.TargetType).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

// Update mutates an assignment. Only the creating teacher or an
// administrator may do so; other staff get ErrForbidden.
func (s *assignmentService) Update(ctx context.Context, viewerID, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.ownedAssignment(ctx, viewerID, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}

	if payload.Description != nil {
		assignment.Description = *payload.Description
	}

	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: invalid due date", ErrInvalidPayload)
		}

		assignment.DueDate = dueDate
	}

	if payload.Language != nil {
		assignment.Language = *payload.Language
	}

	if payload.Level != nil {
		assignment.Level = *payload.Level
	}

	if payload.TargetType != nil {
		assignment.TargetType = *payload.TargetType
	}

	if payload.TargetClass != nil {
		assignment.TargetClass = *payload.TargetClass
	}

	if payload.TargetStudents != nil {
		encoded, err := json.Marshal(*payload.TargetStudents)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid target students: %w", err)
		}
		assignment.TargetStudents = datatypes.JSON(encoded)
	}

	audience := assignment.Audience()
	if err := validateTargeting(string(audience.Type), assignment.TargetClass, audience.StudentNumbers); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

// Delete removes an assignment without touching the submission ledger.
// Graded history stays intact even when the assignment disappears.
// Creator or administrator only, like Update.
func (s *assignmentService) Delete(ctx context.Context, viewerID, id uint) error {
	if _, err := s.ownedAssignment(ctx, viewerID, id); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

// ownedAssignment loads an assignment and checks the viewer may mutate
// it: administrators always, teachers only for their own assignments.
func (s *assignmentService) ownedAssignment(ctx context.Context, viewerID, id uint) (models.Assignment, error) {
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return models.Assignment{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	if viewer.Role != models.RoleAdmin && assignment.CreatedBy != viewer.ID {
		return models.Assignment{}, ErrForbidden
	}

	return assignment, nil
}

func (s *assignmentService) viewer(ctx context.Context, viewerID uint) (models.Student, error) {
	viewer, err := s.students.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	return viewer, nil
}

// submittedSlots maps assignment IDs to the student's submission IDs.
func (s *assignmentService) submittedSlots(ctx context.Context, studentID uint) (map[uint]uint, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	slots := make(map[uint]uint, len(submissions))
	for _, submission := range submissions {
		slots[submission.AssignmentID] = submission.ID
	}

	return slots, nil
}

func validateTargeting(targetType, targetClass string, targetStudents []string) error {
	switch models.AudienceType(targetType) {
	case models.AudienceClass:
		if targetClass == "" {
			return fmt.Errorf("%w: target class is required for class targeting", ErrInvalidPayload)
		}
	case models.AudienceSpecific:
		if targetStudents == nil {
			return fmt.Errorf("%w: target students are required for specific targeting", ErrInvalidPayload)
		}
	}

	return nil
}
