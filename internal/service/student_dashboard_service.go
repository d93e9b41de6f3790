package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/config"
	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
)

const recentSubmissionLimit = 5

// StudentDashboardService produces the aggregated per-student dashboard.
// The payload is cached briefly in Redis; everything else in the API is
// computed fresh per request.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	students    repository.StudentRepository
	badges      BadgeService
	policy      config.XPPolicy
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator. The cache
// client is optional; pass nil to compute every request from the database.
func NewStudentDashboardService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, students repository.StudentRepository, badges BadgeService, policy config.XPPolicy, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		assignments: assignments,
		submissions: submissions,
		students:    students,
		badges:      badges,
		policy:      policy,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentDashboardResponse{}, ErrStudentNotFound
		}
		return dto.StudentDashboardResponse{}, err
	}

	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	earned, err := s.badges.ListEarned(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(student, assignments, submissions, earned)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(student models.Student, assignments []models.Assignment, submissions []models.Submission, earned []dto.BadgeResponse) dto.StudentDashboardResponse {
	now := s.now()

	submittedSlots := make(map[uint]struct{}, len(submissions))
	for _, submission := range submissions {
		submittedSlots[submission.AssignmentID] = struct{}{}
	}

	summary := dto.DashboardSummary{}
	pending := make([]dto.AssignmentResponse, 0)

	for _, assignment := range assignments {
		_, submitted := submittedSlots[assignment.ID]
		if !assignment.VisibleTo(student, submitted) {
			continue
		}

		if !assignment.IsPastDue(now) {
			summary.ActiveAssignments++
			if !submitted {
				summary.PendingSubmissions++
				pending = append(pending, dto.NewAssignmentResponse(assignment, now))
			}
		}
	}

	gradeTotal := 0
	for _, submission := range submissions {
		gradeTotal += submission.Grade
		if submission.Grade >= s.policy.CompletionMinGrade {
			summary.CompletedCount++
		}
	}
	if len(submissions) > 0 {
		summary.AverageScore = int(math.Round(float64(gradeTotal) / float64(len(submissions))))
	}

	recent := make([]dto.SubmissionResponse, 0, recentSubmissionLimit)
	for idx, submission := range submissions {
		if idx >= recentSubmissionLimit {
			break
		}
		recent = append(recent, dto.NewSubmissionResponse(submission, false))
	}

	return dto.StudentDashboardResponse{
		Summary:           summary,
		Pending:           pending,
		RecentSubmissions: recent,
		Badges:            earned,
	}
}
