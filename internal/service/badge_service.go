package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/misolmaz/codegrade-api/internal/config"
	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
)

// BadgeDefinition pairs a badge name with its presentation metadata.
type BadgeDefinition struct {
	Name        string
	Icon        string
	Description string
}

const (
	badgeFirstStep   = "First Step"
	badgeFastFurious = "Fast & Furious"
	badgeCleanCode   = "Clean Code Architect"
	badgeBugHunter   = "Bug Hunter"
	badgeOnFire      = "On Fire"
)

var badgeCatalog = map[string]BadgeDefinition{
	badgeFirstStep: {
		Name:        badgeFirstStep,
		Icon:        "Trophy",
		Description: "İlk ödevini başarıyla tamamladın!",
	},
	badgeFastFurious: {
		Name:        badgeFastFurious,
		Icon:        "Zap",
		Description: "Bir ödevi ilk 12 saat içinde yüksek puanla (>= 80) tamamladın!",
	},
	badgeCleanCode: {
		Name:        badgeCleanCode,
		Icon:        "Sparkles",
		Description: "3 farklı ödevden 95 ve üzeri puan aldın!",
	},
	badgeBugHunter: {
		Name:        badgeBugHunter,
		Icon:        "Shield",
		Description: "5 farklı ödevi başarıyla tamamladın!",
	},
	badgeOnFire: {
		Name:        badgeOnFire,
		Icon:        "Flame",
		Description: "5 gün arka arkaya kod gönderdin!",
	},
}

// BadgeService evaluates badge rules over a student's full submission
// history. Evaluate is diff-based: it returns and persists only badges
// the student has not already earned, so awards are announced exactly once.
type BadgeService interface {
	Evaluate(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error)
	ListEarned(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error)
}

type badgeService struct {
	submissions repository.SubmissionRepository
	badges      repository.BadgeRepository
	policy      config.BadgePolicy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewBadgeService constructs a BadgeService instance.
func NewBadgeService(submissionRepo repository.SubmissionRepository, badgeRepo repository.BadgeRepository, policy config.BadgePolicy, logger zerolog.Logger) BadgeService {
	return &badgeService{
		submissions: submissionRepo,
		badges:      badgeRepo,
		policy:      policy,
		logger:      logger.With().Str("component", "badge_service").Logger(),
		now:         time.Now,
	}
}

func (s *badgeService) Evaluate(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	earned, err := s.badges.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(earned))
	for _, badge := range earned {
		existing[badge.BadgeName] = struct{}{}
	}

	qualified := s.qualifiedBadges(submissions)

	newBadges := make([]dto.BadgeResponse, 0)
	for _, name := range qualified {
		if _, ok := existing[name]; ok {
			continue
		}

		awardedAt := s.now()
		record := models.StudentBadge{StudentID: studentID, BadgeName: name, AwardedAt: awardedAt}
		if err := s.badges.Create(ctx, &record); err != nil {
			return nil, err
		}
		existing[name] = struct{}{}

		definition := badgeCatalog[name]
		newBadges = append(newBadges, dto.BadgeResponse{
			Name:        definition.Name,
			Icon:        definition.Icon,
			Description: definition.Description,
			AwardedAt:   &awardedAt,
		})

		s.logger.Info().Uint("student_id", studentID).Str("badge", name).Msg("badge awarded")
	}

	return newBadges, nil
}

func (s *badgeService) ListEarned(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error) {
	earned, err := s.badges.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.BadgeResponse, 0, len(earned))
	for _, badge := range earned {
		definition, ok := badgeCatalog[badge.BadgeName]
		if !ok {
			// Unknown names survive policy changes; expose them as-is.
			definition = BadgeDefinition{Name: badge.BadgeName}
		}

		awardedAt := badge.AwardedAt
		responses = append(responses, dto.BadgeResponse{
			Name:        definition.Name,
			Icon:        definition.Icon,
			Description: definition.Description,
			AwardedAt:   &awardedAt,
		})
	}

	return responses, nil
}

// qualifiedBadges returns every badge the submission history satisfies,
// in catalog order, regardless of what was already awarded.
func (s *badgeService) qualifiedBadges(submissions []models.Submission) []string {
	var qualified []string

	if s.hasFirstStep(submissions) {
		qualified = append(qualified, badgeFirstStep)
	}
	if s.hasFastFurious(submissions) {
		qualified = append(qualified, badgeFastFurious)
	}
	if s.countDistinctAbove(submissions, s.policy.CleanCodeMinGrade) >= s.policy.CleanCodeAssignments {
		qualified = append(qualified, badgeCleanCode)
	}
	if s.countDistinctAbove(submissions, s.policy.BugHunterMinGrade) >= s.policy.BugHunterAssignments {
		qualified = append(qualified, badgeBugHunter)
	}
	if s.hasOnFire(submissions) {
		qualified = append(qualified, badgeOnFire)
	}

	return qualified
}

func (s *badgeService) hasFirstStep(submissions []models.Submission) bool {
	for _, sub := range submissions {
		if sub.Grade >= s.policy.FirstStepMinGrade {
			return true
		}
	}

	return false
}

func (s *badgeService) hasFastFurious(submissions []models.Submission) bool {
	for _, sub := range submissions {
		if sub.Grade < s.policy.FastFuriousMinGrade {
			continue
		}
		if sub.Assignment.ID == 0 || sub.Assignment.CreatedAt.IsZero() {
			continue
		}
		if sub.SubmittedAt.Sub(sub.Assignment.CreatedAt) <= s.policy.FastFuriousWindow {
			return true
		}
	}

	return false
}

func (s *badgeService) countDistinctAbove(submissions []models.Submission, minGrade int) int {
	assignments := make(map[uint]struct{})
	for _, sub := range submissions {
		if sub.Grade >= minGrade {
			assignments[sub.AssignmentID] = struct{}{}
		}
	}

	return len(assignments)
}

func (s *badgeService) hasOnFire(submissions []models.Submission) bool {
	required := s.policy.OnFireConsecutiveDays
	if required <= 0 || len(submissions) == 0 {
		return false
	}

	daySet := make(map[string]time.Time)
	for _, sub := range submissions {
		day := sub.SubmittedAt.Truncate(24 * time.Hour)
		daySet[day.Format("2006-01-02")] = day
	}

	days := make([]time.Time, 0, len(daySet))
	for _, day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			streak++
			if streak >= required {
				return true
			}
		} else {
			streak = 1
		}
	}

	return streak >= required
}
