package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
)

// In-memory repository stubs shared by the service tests.

type stubAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (r *stubAssignmentRepo) List(_ context.Context) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0, len(r.assignments))
	for id := uint(1); id < r.nextID; id++ {
		if a, ok := r.assignments[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := r.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (r *stubAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = r.nextID
	r.nextID++
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *stubAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := r.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *stubAssignmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.assignments, id)
	return nil
}

type stubSubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
	createErr   error
}

func newStubSubmissionRepo() *stubSubmissionRepo {
	return &stubSubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (r *stubSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for id := uint(1); id < r.nextID; id++ {
		sub, ok := r.submissions[id]
		if !ok {
			continue
		}
		if filter.AssignmentID != nil && sub.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && sub.StudentID != *filter.StudentID {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (r *stubSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	sub, ok := r.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (r *stubSubmissionRepo) ExistsForPair(_ context.Context, assignmentID, studentID uint) (bool, error) {
	for _, sub := range r.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, sub := range r.submissions {
		if sub.AssignmentID == submission.AssignmentID && sub.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = r.nextID
	r.nextID++
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *stubSubmissionRepo) DeleteByID(_ context.Context, id uint) error {
	if _, ok := r.submissions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.submissions, id)
	return nil
}

type stubStudentRepo struct {
	students map[uint]models.Student
}

func newStubStudentRepo(students ...models.Student) *stubStudentRepo {
	repo := &stubStudentRepo{students: make(map[uint]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (r *stubStudentRepo) List(_ context.Context, filter repository.StudentFilter) ([]models.Student, error) {
	out := make([]models.Student, 0)
	for _, student := range r.students {
		if filter.Role != "" && student.Role != filter.Role {
			continue
		}
		if filter.ClassCode != "" && student.ClassCode != filter.ClassCode {
			continue
		}
		out = append(out, student)
	}
	return out, nil
}

func (r *stubStudentRepo) GetByID(_ context.Context, id uint) (models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

type stubBadgeRepo struct {
	badges []models.StudentBadge
	nextID uint
}

func newStubBadgeRepo() *stubBadgeRepo {
	return &stubBadgeRepo{nextID: 1}
}

func (r *stubBadgeRepo) ListByStudent(_ context.Context, studentID uint) ([]models.StudentBadge, error) {
	out := make([]models.StudentBadge, 0)
	for _, badge := range r.badges {
		if badge.StudentID == studentID {
			out = append(out, badge)
		}
	}
	return out, nil
}

func (r *stubBadgeRepo) Create(_ context.Context, badge *models.StudentBadge) error {
	for _, existing := range r.badges {
		if existing.StudentID == badge.StudentID && existing.BadgeName == badge.BadgeName {
			return gorm.ErrDuplicatedKey
		}
	}
	badge.ID = r.nextID
	r.nextID++
	r.badges = append(r.badges, *badge)
	return nil
}

type stubNotificationRepo struct {
	notifications []models.Notification
	nextID        uint
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{nextID: 1}
}

func (r *stubNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	notification.ID = r.nextID
	r.nextID++
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *stubNotificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	out := make([]models.Notification, 0)
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id uint, userID string) (models.Notification, error) {
	for i, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			r.notifications[i].Read = true
			return r.notifications[i], nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

var errStubUnavailable = errors.New("stub backend unavailable")
