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
	"github.com/misolmaz/codegrade-api/pkg/ai"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrDeadlinePassed indicates the assignment deadline had already passed
// when the submission arrived.
var ErrDeadlinePassed = errors.New("assignment deadline has passed")

// ErrDuplicateSubmission indicates the student already holds the single
// submission slot for this assignment.
var ErrDuplicateSubmission = errors.New("assignment already submitted")

// ErrForbidden indicates the caller's role does not permit the operation.
var ErrForbidden = errors.New("operation not permitted")

// SubmissionService orchestrates the submit pipeline: deadline gate,
// duplicate gate, grading ingestion, ledger write and badge evaluation.
type SubmissionService interface {
	Submit(ctx context.Context, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, viewerID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, viewerID, id uint) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, viewerID, id uint) error
}

// BadgeNotifier receives submit pipeline events for fanout to the
// student. Delivery is best effort in both directions.
type BadgeNotifier interface {
	NotifyBadges(ctx context.Context, student models.Student, badges []dto.BadgeResponse)
	NotifyGradingFailure(ctx context.Context, student models.Student, assignment models.Assignment, reason string)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	grading     GradingService
	badges      BadgeService
	notifier    BadgeNotifier
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. The
// notifier is optional; pass nil to disable badge fanout.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, studentRepo repository.StudentRepository, grading GradingService, badges BadgeService, notifier BadgeNotifier, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		students:    studentRepo,
		grading:     grading,
		badges:      badges,
		notifier:    notifier,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	// The deadline gate runs before anything touches the ledger.
	submittedAt := s.now()
	if assignment.IsPastDue(submittedAt) {
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	exists, err := s.submissions.ExistsForPair(ctx, assignment.ID, student.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if exists {
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	}

	outcome, err := s.grading.Ingest(ctx, ai.GradingInput{
		Description:  assignment.Description,
		Language:     assignment.Language,
		Code:         payload.Code,
		StudentLevel: assignment.Level,
	})
	if err != nil {
		// A failed grading run persists nothing; the slot stays open.
		var failure *GradingFailure
		if s.notifier != nil && errors.As(err, &failure) {
			s.notifier.NotifyGradingFailure(ctx, student, assignment, failure.Reason)
		}
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		StudentName:  student.FullName,
		Code:         payload.Code,
		SubmittedAt:  submittedAt,
		Grade:        outcome.Grade,
		CodeQuality:  outcome.CodeQuality,
		Feedback:     outcome.Feedback,
	}

	if submission.Suggestions, err = encodeJSONColumn(outcome.Suggestions); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.UnitTests, err = encodeJSONColumn(outcome.UnitTests); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		// The unique index catches pairs that raced past ExistsForPair.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Assignment = assignment
	submission.Student = student

	newBadges, err := s.badges.Evaluate(ctx, student.ID)
	if err != nil {
		// The ledger write already happened; badge evaluation failures
		// must not undo a graded submission.
		s.logger.Error().Err(err).Uint("student_id", student.ID).Msg("badge evaluation failed")
		newBadges = nil
	}

	if s.notifier != nil && len(newBadges) > 0 {
		s.notifier.NotifyBadges(ctx, student, newBadges)
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Uint("student_id", student.ID).
		Int("grade", submission.Grade).
		Msg("submission recorded")

	response := dto.NewSubmissionResponse(submission, true)
	response.NewBadges = newBadges

	return response, nil
}

func (s *submissionService) List(ctx context.Context, viewerID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	viewer, err := s.students.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
	}

	// Students only ever see their own ledger entries.
	if !viewer.IsStaff() {
		repoFilter.StudentID = &viewer.ID
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions, viewer.IsStaff()), nil
}

func (s *submissionService) Get(ctx context.Context, viewerID, id uint) (dto.SubmissionResponse, error) {
	viewer, err := s.students.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !viewer.IsStaff() && submission.StudentID != viewer.ID {
		return dto.SubmissionResponse{}, ErrSubmissionNotFound
	}

	return dto.NewSubmissionResponse(submission, true), nil
}

// Delete removes a submission and re-opens its slot. Staff only.
func (s *submissionService) Delete(ctx context.Context, viewerID, id uint) error {
	viewer, err := s.students.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if !viewer.IsStaff() {
		return ErrForbidden
	}

	if err := s.submissions.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	s.logger.Info().Uint("submission_id", id).Uint("deleted_by", viewer.ID).Msg("submission deleted")
	return nil
}

func encodeJSONColumn(value any) (datatypes.JSON, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}

	return datatypes.JSON(encoded), nil
}
