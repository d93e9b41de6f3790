package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/config"
	"github.com/misolmaz/codegrade-api/internal/dto"
	"github.com/misolmaz/codegrade-api/internal/handler"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
	"github.com/misolmaz/codegrade-api/internal/router"
	"github.com/misolmaz/codegrade-api/internal/service"
	"github.com/misolmaz/codegrade-api/pkg/ai"
)

// testGrader replaces the grading oracle in handler tests.
type testGrader struct {
	outcome ai.GradingOutcome
	err     error
}

func (g *testGrader) Grade(_ context.Context, _ ai.GradingInput) (ai.GradingOutcome, error) {
	return g.outcome, g.err
}

type noopNotifier struct{}

func (noopNotifier) NotifyBadges(_ context.Context, _ models.Student, _ []dto.BadgeResponse) {}

func (noopNotifier) NotifyGradingFailure(_ context.Context, _ models.Student, _ models.Assignment, _ string) {
}

type testApp struct {
	app    *fiber.App
	db     *gorm.DB
	grader *testGrader
}

// identityAs stamps a fixed identity onto every request, standing in for
// the JWT middleware.
func identityAs(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idValue := c.Get("X-Test-User")
		if idValue == "" {
			return c.Next()
		}

		id, err := strconv.ParseUint(idValue, 10, 64)
		if err != nil {
			return c.Next()
		}

		var student models.Student
		if err := db.First(&student, uint(id)).Error; err == nil {
			c.Locals("user_id", student.ID)
			c.Locals("user_role", student.Role)
		} else {
			c.Locals("user_id", uint(id))
			c.Locals("user_role", models.RoleStudent)
		}

		return c.Next()
	}
}

func setupApp(t *testing.T) testApp {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.StudentBadge{},
		&models.Announcement{},
		&models.Notification{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	grader := &testGrader{outcome: ai.GradingOutcome{Grade: 85, Feedback: "iyi iş", CodeQuality: "good"}}

	cfg := config.Config{
		AppName:   "CodeGrade Test",
		JWTSecret: "secret",
		Badges: config.BadgePolicy{
			FirstStepMinGrade:     1,
			FastFuriousMinGrade:   80,
			FastFuriousWindow:     12 * time.Hour,
			CleanCodeMinGrade:     95,
			CleanCodeAssignments:  3,
			BugHunterMinGrade:     60,
			BugHunterAssignments:  5,
			OnFireConsecutiveDays: 5,
		},
		XP: config.XPPolicy{
			CleanCodeBonusXP:   5,
			CleanCodeMinGrade:  96,
			EarlyBirdBonusXP:   10,
			EarlyBirdWindow:    24 * time.Hour,
			CompletionMinGrade: 70,
			StreakWindowWeeks:  1,
		},
	}

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	gradingService := service.NewGradingService(grader, logger)
	badgeService := service.NewBadgeService(submissionRepo, badgeRepo, cfg.Badges, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, studentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, gradingService, badgeService, noopNotifier{}, validate, logger)
	leaderboardService := service.NewLeaderboardService(studentRepo, submissionRepo, badgeRepo, cfg.XP, logger)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:  handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		LeaderboardHandler: handler.NewLeaderboardHandler(leaderboardService, logger),
		JWTMiddleware:      identityAs(db),
	})

	return testApp{app: app, db: db, grader: grader}
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func jsonRequest(t *testing.T, method, path string, payload interface{}, userID uint) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}

	return req
}

func TestAssignmentHandlerCreateAndDistribute(t *testing.T) {
	ta := setupApp(t)

	teacher := models.Student{FullName: "Mehmet Hoca", Role: models.RoleTeacher}
	require.NoError(t, ta.db.Create(&teacher).Error)
	student := models.Student{FullName: "Ayşe Yılmaz", StudentNumber: "101", ClassCode: "10A", Role: models.RoleStudent}
	require.NoError(t, ta.db.Create(&student).Error)

	payload := map[string]interface{}{
		"title":        "Fibonacci Serisi",
		"description":  "Rekürsif fibonacci yaz",
		"due_date":     time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"language":     "python",
		"level":        "beginner",
		"target_type":  "class",
		"target_class": "10A",
	}

	resp, err := ta.app.Test(jsonRequest(t, "POST", "/api/v1/assignments", payload, teacher.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                   `json:"success"`
		Data    dto.AssignmentResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.Equal(t, "assignment created", created.Message)
	require.NotZero(t, created.Data.ID)
	require.False(t, created.Data.Countdown.Expired)

	// The targeted student sees the assignment with a live countdown.
	resp, err = ta.app.Test(jsonRequest(t, "GET", "/api/v1/assignments", nil, student.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Success bool                     `json:"success"`
		Data    []dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 1)
	require.Equal(t, created.Data.ID, listed.Data[0].ID)
	require.False(t, listed.Data[0].Submitted)
	require.NotEmpty(t, listed.Data[0].Countdown.Humanized)
}

func TestAssignmentHandlerStudentCannotMutate(t *testing.T) {
	ta := setupApp(t)

	student := models.Student{FullName: "Ali Kaya", StudentNumber: "102", Role: models.RoleStudent}
	require.NoError(t, ta.db.Create(&student).Error)

	payload := map[string]interface{}{
		"title":       "Yasak Ödev",
		"description": "x",
		"due_date":    time.Now().Add(time.Hour).Format(time.RFC3339),
		"language":    "go",
		"level":       "beginner",
	}

	resp, err := ta.app.Test(jsonRequest(t, "POST", "/api/v1/assignments", payload, student.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAssignmentHandlerNonCreatorTeacherCannotMutate(t *testing.T) {
	ta := setupApp(t)

	creator := models.Student{FullName: "Mehmet Hoca", Role: models.RoleTeacher}
	require.NoError(t, ta.db.Create(&creator).Error)
	other := models.Student{FullName: "Zeynep Hoca", Role: models.RoleTeacher}
	require.NoError(t, ta.db.Create(&other).Error)
	admin := models.Student{FullName: "Müdür", Role: models.RoleAdmin}
	require.NoError(t, ta.db.Create(&admin).Error)

	payload := map[string]interface{}{
		"title":       "Orijinal Başlık",
		"description": "x",
		"due_date":    time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"language":    "go",
		"level":       "beginner",
	}

	resp, err := ta.app.Test(jsonRequest(t, "POST", "/api/v1/assignments", payload, creator.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	path := "/api/v1/assignments/" + strconv.FormatUint(uint64(created.Data.ID), 10)

	// Another teacher cannot rewrite or drop someone else's assignment.
	resp, err = ta.app.Test(jsonRequest(t, "PATCH", path, map[string]interface{}{"title": "Ele Geçirildi"}, other.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = ta.app.Test(jsonRequest(t, "DELETE", path, nil, other.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var stored models.Assignment
	require.NoError(t, ta.db.First(&stored, created.Data.ID).Error)
	require.Equal(t, "Orijinal Başlık", stored.Title)

	// The creator and an administrator still can.
	resp, err = ta.app.Test(jsonRequest(t, "PATCH", path, map[string]interface{}{"title": "Yeni Başlık"}, creator.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = ta.app.Test(jsonRequest(t, "DELETE", path, nil, admin.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAssignmentHandlerRejectsPastDueDate(t *testing.T) {
	ta := setupApp(t)

	teacher := models.Student{FullName: "Mehmet Hoca", Role: models.RoleTeacher}
	require.NoError(t, ta.db.Create(&teacher).Error)

	payload := map[string]interface{}{
		"title":       "Geçmiş Ödev",
		"description": "x",
		"due_date":    time.Now().Add(-time.Hour).Format(time.RFC3339),
		"language":    "go",
		"level":       "beginner",
	}

	resp, err := ta.app.Test(jsonRequest(t, "POST", "/api/v1/assignments", payload, teacher.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var failed struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &failed)
	require.False(t, failed.Success)
	require.Contains(t, failed.Message, "due date must be in the future")
}

func TestAssignmentHandlerHiddenAssignmentIs404(t *testing.T) {
	ta := setupApp(t)

	student := models.Student{FullName: "Ali Kaya", StudentNumber: "102", ClassCode: "10A", Role: models.RoleStudent}
	require.NoError(t, ta.db.Create(&student).Error)

	assignment := models.Assignment{
		Title:       "10B Ödevi",
		Description: "x",
		DueDate:     time.Now().Add(24 * time.Hour),
		Language:    "go",
		Level:       models.LevelBeginner,
		Status:      models.AssignmentStatusActive,
		TargetType:  string(models.AudienceClass),
		TargetClass: "10B",
	}
	require.NoError(t, ta.db.Create(&assignment).Error)

	resp, err := ta.app.Test(jsonRequest(t, "GET", "/api/v1/assignments/"+strconv.FormatUint(uint64(assignment.ID), 10), nil, student.ID))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
