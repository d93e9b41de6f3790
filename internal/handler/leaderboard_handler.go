package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/misolmaz/codegrade-api/internal/service"
	"github.com/misolmaz/codegrade-api/internal/utils"
)

// LeaderboardHandler serves the derived class ranking.
type LeaderboardHandler struct {
	service service.LeaderboardService
	logger  zerolog.Logger
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(service service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches the leaderboard endpoint to the router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("", h.get)
}

func (h *LeaderboardHandler) get(c *fiber.Ctx) error {
	classCode := c.Query("class_code")

	leaderboard, err := h.service.Rank(c.UserContext(), classCode, userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}
