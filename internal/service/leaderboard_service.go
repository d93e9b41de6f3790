package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/misolmaz/codegrade-api/internal/config"
	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
)

// LeaderboardService derives the class ranking from the submission
// snapshot on every call. Rankings are never cached; a deleted or newly
// graded submission is reflected by the next query.
type LeaderboardService interface {
	Rank(ctx context.Context, classCode string, viewerID uint) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	badges      repository.BadgeRepository
	policy      config.XPPolicy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLeaderboardService constructs a LeaderboardService instance.
func NewLeaderboardService(studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, badgeRepo repository.BadgeRepository, policy config.XPPolicy, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		students:    studentRepo,
		submissions: submissionRepo,
		badges:      badgeRepo,
		policy:      policy,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *leaderboardService) Rank(ctx context.Context, classCode string, viewerID uint) (dto.LeaderboardResponse, error) {
	students, err := s.students.List(ctx, repository.StudentFilter{Role: models.RoleStudent, ClassCode: classCode})
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	now := s.now()

	type scored struct {
		entry         dto.LeaderboardEntry
		studentID     uint
		studentNumber string
	}

	rows := make([]scored, 0, len(students))
	for _, student := range students {
		studentID := student.ID
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
		if err != nil {
			return dto.LeaderboardResponse{}, err
		}

		totalXP := 0
		totalScore := 0
		completed := 0

		for _, submission := range submissions {
			totalXP += s.submissionXP(submission)
			totalScore += submission.Grade
			if submission.Grade >= s.policy.CompletionMinGrade {
				completed++
			}
		}
		streak := s.hasStreak(submissions, now)

		average := 0
		if len(submissions) > 0 {
			average = int(math.Round(float64(totalScore) / float64(len(submissions))))
		}

		earned, err := s.badges.ListByStudent(ctx, studentID)
		if err != nil {
			return dto.LeaderboardResponse{}, err
		}
		badgeList := make([]string, 0, len(earned))
		for _, badge := range earned {
			badgeList = append(badgeList, badge.BadgeName)
		}

		rows = append(rows, scored{
			studentID:     studentID,
			studentNumber: student.StudentNumber,
			entry: dto.LeaderboardEntry{
				Username:       student.StudentNumber,
				FullName:       student.FullName,
				AvatarURL:      student.AvatarURL,
				TotalXP:        totalXP,
				AverageScore:   average,
				CompletedTasks: completed,
				Streak:         streak,
				Badges:         badgeList,
			},
		})
	}

	// Strict total order: XP, then average, then student number. Two
	// distinct students can never compare equal, so ranking is stable
	// across calls without relying on sort stability.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].entry.TotalXP != rows[j].entry.TotalXP {
			return rows[i].entry.TotalXP > rows[j].entry.TotalXP
		}
		if rows[i].entry.AverageScore != rows[j].entry.AverageScore {
			return rows[i].entry.AverageScore > rows[j].entry.AverageScore
		}
		return rows[i].studentNumber < rows[j].studentNumber
	})

	response := dto.LeaderboardResponse{Entries: make([]dto.LeaderboardEntry, 0, len(rows))}
	for i, row := range rows {
		row.entry.Rank = i + 1
		response.Entries = append(response.Entries, row.entry)

		if viewerID != 0 && row.studentID == viewerID {
			rank := row.entry.Rank
			response.YourRank = &rank
		}
	}

	return response, nil
}

// hasStreak reports whether the student submitted in every one of the
// configured trailing weeks. Week k covers (now-(k+1)*7d, now-k*7d];
// a single empty week breaks the streak.
func (s *leaderboardService) hasStreak(submissions []models.Submission, now time.Time) bool {
	weeks := s.policy.StreakWindowWeeks
	if weeks < 1 {
		weeks = 1
	}

	covered := make([]bool, weeks)
	for _, submission := range submissions {
		age := now.Sub(submission.SubmittedAt)
		if age < 0 {
			age = 0
		}
		week := int(age / (7 * 24 * time.Hour))
		if week < weeks {
			covered[week] = true
		}
	}

	for _, ok := range covered {
		if !ok {
			return false
		}
	}

	return true
}

// submissionXP derives the experience points a single graded submission
// contributes: the grade itself plus the quality and early-bird bonuses.
func (s *leaderboardService) submissionXP(submission models.Submission) int {
	xp := submission.Grade

	if submission.Grade >= s.policy.CleanCodeMinGrade {
		xp += s.policy.CleanCodeBonusXP
	}

	assignment := submission.Assignment
	if assignment.ID != 0 && !assignment.CreatedAt.IsZero() {
		if !submission.SubmittedAt.After(assignment.CreatedAt.Add(s.policy.EarlyBirdWindow)) {
			xp += s.policy.EarlyBirdBonusXP
		}
	}

	return xp
}
