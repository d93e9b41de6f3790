package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
)

// ErrAnnouncementNotFound indicates the announcement does not exist.
var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementService publishes organization-wide announcements.
type AnnouncementService interface {
	List(ctx context.Context) ([]dto.AnnouncementResponse, error)
	Create(ctx context.Context, creatorID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id uint) error
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	validator *validator.Validate
	logger    zerolog.Logger
	titles    *bluemonday.Policy
	contents  *bluemonday.Policy
}

// NewAnnouncementService constructs the announcement service.
func NewAnnouncementService(repo repository.AnnouncementRepository, validate *validator.Validate, logger zerolog.Logger) AnnouncementService {
	contents := bluemonday.UGCPolicy()
	contents.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	contents.AllowAttrs("href", "title", "target").OnElements("a")

	return &announcementService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "announcement_service").Logger(),
		titles:    bluemonday.StrictPolicy(),
		contents:  contents,
	}
}

func (s *announcementService) List(ctx context.Context) ([]dto.AnnouncementResponse, error) {
	announcements, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewAnnouncementResponseSlice(announcements), nil
}

func (s *announcementService) Create(ctx context.Context, creatorID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	title := strings.TrimSpace(s.titles.Sanitize(payload.Title))
	content := strings.TrimSpace(s.contents.Sanitize(payload.Content))
	if title == "" || content == "" {
		return dto.AnnouncementResponse{}, errors.New("announcement empty after sanitization")
	}

	announcementType := payload.Type
	if announcementType == "" {
		announcementType = models.AnnouncementTypeInfo
	}

	announcement := models.Announcement{
		Title:     title,
		Content:   content,
		Type:      announcementType,
		CreatedBy: creatorID,
	}

	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.logger.Info().Uint("announcement_id", announcement.ID).Str("type", announcement.Type).Msg("announcement published")

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}

	s.logger.Info().Uint("announcement_id", id).Msg("announcement deleted")
	return nil
}
