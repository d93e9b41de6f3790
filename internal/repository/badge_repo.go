package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/models"
)

// BadgeRepository persists badge awards.
type BadgeRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.StudentBadge, error)
	Create(ctx context.Context, badge *models.StudentBadge) error
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository instantiates the repository.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.StudentBadge, error) {
	var badges []models.StudentBadge
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("awarded_at ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}

	return badges, nil
}

func (r *badgeRepository) Create(ctx context.Context, badge *models.StudentBadge) error {
	return r.db.WithContext(ctx).Create(badge).Error
}
