// Package contract pins the leaderboard wire format. Frontend clients
// bind to these field names; a schema failure here means a breaking
// API change, not a bug in the ranking math.
package contract

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/misolmaz/codegrade-api/internal/config"
	"github.com/misolmaz/codegrade-api/internal/handler"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
	"github.com/misolmaz/codegrade-api/internal/service"
)

func leaderboardSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("testdata/leaderboard.schema.json")
	require.NoError(t, err)

	return schema
}

func setupLeaderboardApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Submission{}, &models.StudentBadge{}))

	policy := config.XPPolicy{
		CleanCodeBonusXP:   5,
		CleanCodeMinGrade:  96,
		EarlyBirdBonusXP:   10,
		EarlyBirdWindow:    24 * time.Hour,
		CompletionMinGrade: 70,
		StreakWindowWeeks:  1,
	}

	svc := service.NewLeaderboardService(
		repository.NewStudentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewBadgeRepository(db),
		policy,
		zerolog.New(io.Discard),
	)

	app := fiber.New()
	group := app.Group("/api/v1/leaderboard", func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
				c.Locals("user_id", uint(id))
			}
		}
		return c.Next()
	})
	handler.NewLeaderboardHandler(svc, zerolog.New(io.Discard)).Register(group)

	return app, db
}

func TestLeaderboardResponseMatchesSchema(t *testing.T) {
	app, db := setupLeaderboardApp(t)

	students := []models.Student{
		{FullName: "Ayşe Yılmaz", StudentNumber: "101", ClassCode: "10A", Role: models.RoleStudent},
		{FullName: "Ali Kaya", StudentNumber: "102", ClassCode: "10A", Role: models.RoleStudent},
	}
	for i := range students {
		require.NoError(t, db.Create(&students[i]).Error)
	}

	assignment := models.Assignment{
		Title:       "Sorting",
		Description: "x",
		DueDate:     time.Now().Add(24 * time.Hour),
		Language:    "go",
		Level:       models.LevelBeginner,
		Status:      models.AssignmentStatusActive,
	}
	require.NoError(t, db.Create(&assignment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    students[0].ID,
		Code:         "print(1)",
		SubmittedAt:  time.Now(),
		Grade:        97,
	}
	require.NoError(t, db.Create(&submission).Error)

	badge := models.StudentBadge{StudentID: students[0].ID, BadgeName: "First Step", AwardedAt: time.Now()}
	require.NoError(t, db.Create(&badge).Error)

	req := httptest.NewRequest("GET", "/api/v1/leaderboard?class_code=10A", nil)
	req.Header.Set("X-Test-User", strconv.FormatUint(uint64(students[0].ID), 10))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	var payload interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	require.NoError(t, leaderboardSchema(t).Validate(payload))

	// Spot-check the ordering fields the schema cannot express.
	envelope := payload.(map[string]interface{})
	data := envelope["data"].(map[string]interface{})
	entries := data["entries"].([]interface{})
	require.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	require.EqualValues(t, 1, first["rank"])
	require.Equal(t, "101", first["username"])
	require.EqualValues(t, 1, data["your_rank"])
}

func TestLeaderboardEmptyClassMatchesSchema(t *testing.T) {
	app, _ := setupLeaderboardApp(t)

	req := httptest.NewRequest("GET", "/api/v1/leaderboard?class_code=YOK", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	var payload interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	require.NoError(t, leaderboardSchema(t).Validate(payload))
}
