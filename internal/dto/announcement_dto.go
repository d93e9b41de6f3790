package dto

import (
	"time"

	"github.com/misolmaz/codegrade-api/internal/models"
)

// AnnouncementCreateRequest publishes an organization-wide announcement.
type AnnouncementCreateRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type" validate:"omitempty,oneof=info warning success"`
}

// AnnouncementResponse is returned when listing announcements.
type AnnouncementResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAnnouncementResponse converts an Announcement model into a DTO.
func NewAnnouncementResponse(model models.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:        model.ID,
		Title:     model.Title,
		Content:   model.Content,
		Type:      model.Type,
		CreatedAt: model.CreatedAt,
	}
}

// NewAnnouncementResponseSlice converts announcement models into DTOs.
func NewAnnouncementResponseSlice(announcements []models.Announcement) []AnnouncementResponse {
	responses := make([]AnnouncementResponse, 0, len(announcements))
	for _, announcement := range announcements {
		responses = append(responses, NewAnnouncementResponse(announcement))
	}

	return responses
}
