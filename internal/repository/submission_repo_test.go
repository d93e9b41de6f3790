package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/models"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory database per test keeps state from leaking between them.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Submission{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func seedPair(t *testing.T, db *gorm.DB) (models.Assignment, models.Student) {
	t.Helper()

	assignment := models.Assignment{Title: "Fibonacci", Description: "recursion", DueDate: time.Now().Add(48 * time.Hour), Language: "python", Level: models.LevelBeginner, Status: models.AssignmentStatusActive}
	require.NoError(t, db.Create(&assignment).Error)

	student := models.Student{FullName: "Ayşe Demir", StudentNumber: "2021001", ClassCode: "10A", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	return assignment, student
}

func TestSubmissionRepositoryRejectsDuplicatePair(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewSubmissionRepository(db)
	assignment, student := seedPair(t, db)

	first := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, StudentName: student.FullName, Code: "print(fib(10))", SubmittedAt: time.Now(), Grade: 85}
	require.NoError(t, repo.Create(context.Background(), &first))

	duplicate := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, StudentName: student.FullName, Code: "print(fib(20))", SubmittedAt: time.Now(), Grade: 90}
	err := repo.Create(context.Background(), &duplicate)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// The ledger must be unchanged by the rejected attempt.
	submissions, err := repo.List(context.Background(), SubmissionFilter{AssignmentID: &assignment.ID})
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	require.Equal(t, first.ID, submissions[0].ID)
}

func TestSubmissionRepositoryDeleteReopensSlot(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewSubmissionRepository(db)
	assignment, student := seedPair(t, db)

	first := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Code: "v1", SubmittedAt: time.Now(), Grade: 40}
	require.NoError(t, repo.Create(context.Background(), &first))

	exists, err := repo.ExistsForPair(context.Background(), assignment.ID, student.ID)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, repo.DeleteByID(context.Background(), first.ID))

	exists, err = repo.ExistsForPair(context.Background(), assignment.ID, student.ID)
	require.NoError(t, err)
	require.False(t, exists)

	second := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Code: "v2", SubmittedAt: time.Now(), Grade: 75}
	require.NoError(t, repo.Create(context.Background(), &second))
}

func TestSubmissionRepositoryDeleteMissingReturnsNotFound(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewSubmissionRepository(db)

	err := repo.DeleteByID(context.Background(), 999)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSubmissionRepositoryListFiltersByStudent(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewSubmissionRepository(db)
	assignment, student := seedPair(t, db)

	other := models.Student{FullName: "Mehmet Kaya", StudentNumber: "2021002", ClassCode: "10A", Role: models.RoleStudent}
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, repo.Create(context.Background(), &models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Code: "a", SubmittedAt: time.Now(), Grade: 70}))
	require.NoError(t, repo.Create(context.Background(), &models.Submission{AssignmentID: assignment.ID, StudentID: other.ID, Code: "b", SubmittedAt: time.Now(), Grade: 80}))

	mine, err := repo.List(context.Background(), SubmissionFilter{StudentID: &student.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, student.ID, mine[0].StudentID)
}
