package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/models"
)

type announcementRepoStub struct {
	items  []models.Announcement
	nextID uint
}

func (r *announcementRepoStub) List(_ context.Context) ([]models.Announcement, error) {
	return r.items, nil
}

func (r *announcementRepoStub) Create(_ context.Context, announcement *models.Announcement) error {
	r.nextID++
	announcement.ID = r.nextID
	r.items = append(r.items, *announcement)
	return nil
}

func (r *announcementRepoStub) Delete(_ context.Context, id uint) error {
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return errStubUnavailable
}

func TestAnnouncementCreateSanitizesContent(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, validator.New(), zerolog.Nop())

	created, err := svc.Create(context.Background(), 3, dto.AnnouncementCreateRequest{
		Title:   "Sınav <script>alert('x')</script>haftası",
		Content: "<script>alert('x')</script><p>Pazartesi başlıyor</p>",
		Type:    models.AnnouncementTypeWarning,
	})
	require.NoError(t, err)
	require.Equal(t, "Sınav haftası", created.Title)
	require.Equal(t, "<p>Pazartesi başlıyor</p>", created.Content)
	require.Equal(t, models.AnnouncementTypeWarning, created.Type)
}

func TestAnnouncementCreateDefaultsToInfo(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, validator.New(), zerolog.Nop())

	created, err := svc.Create(context.Background(), 3, dto.AnnouncementCreateRequest{
		Title:   "Duyuru",
		Content: "Ders iptal",
	})
	require.NoError(t, err)
	require.Equal(t, models.AnnouncementTypeInfo, created.Type)
}

func TestAnnouncementCreateRejectsScriptOnly(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, validator.New(), zerolog.Nop())

	_, err := svc.Create(context.Background(), 3, dto.AnnouncementCreateRequest{
		Title:   "Duyuru",
		Content: "<script>alert('x')</script>",
	})
	require.Error(t, err)
	require.Empty(t, repo.items)
}
