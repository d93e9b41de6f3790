package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/models"
)

// StudentFilter narrows student queries.
type StudentFilter struct {
	Role      string
	ClassCode string
}

// StudentRepository reads student records supplied by the identity provider.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if filter.ClassCode != "" {
		query = query.Where("class_code = ?", filter.ClassCode)
	}

	var students []models.Student
	if err := query.Order("student_number ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}
