package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/misolmaz/codegrade-api/pkg/ai"
)

// GradingFailure signals that the oracle could not produce a usable grade.
// Nothing is persisted for a failed grading run. The submission slot stays
// open so the student can retry.
type GradingFailure struct {
	Reason string
}

func (e *GradingFailure) Error() string {
	if e.Reason == "" {
		return "grading failed"
	}
	return fmt.Sprintf("grading failed: %s", e.Reason)
}

// GradingService ingests raw oracle outcomes and converts the zero-grade
// failure sentinel into a typed error before anything reaches the ledger.
type GradingService interface {
	Ingest(ctx context.Context, input ai.GradingInput) (ai.GradingOutcome, error)
}

type gradingService struct {
	grader ai.Grader
	logger zerolog.Logger
}

// NewGradingService constructs a GradingService instance.
func NewGradingService(grader ai.Grader, logger zerolog.Logger) GradingService {
	return &gradingService{
		grader: grader,
		logger: logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Ingest(ctx context.Context, input ai.GradingInput) (ai.GradingOutcome, error) {
	started := time.Now()

	outcome, err := s.grader.Grade(ctx, input)
	if err != nil {
		s.logger.Error().Err(err).Str("language", input.Language).Msg("grading call failed")
		return ai.GradingOutcome{}, &GradingFailure{Reason: err.Error()}
	}

	if outcome.Failed() {
		s.logger.Warn().Str("language", input.Language).Str("feedback", outcome.Feedback).Msg("oracle reported grading failure")
		return ai.GradingOutcome{}, &GradingFailure{Reason: outcome.Feedback}
	}

	if outcome.Grade < 1 || outcome.Grade > 100 {
		s.logger.Error().Int("grade", outcome.Grade).Msg("oracle grade out of range")
		return ai.GradingOutcome{}, &GradingFailure{Reason: fmt.Sprintf("grade %d out of range", outcome.Grade)}
	}

	s.logger.Info().Int("grade", outcome.Grade).Dur("elapsed", time.Since(started)).Msg("submission graded")

	return outcome, nil
}
