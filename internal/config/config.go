package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BadgePolicy holds the thresholds the badge engine evaluates against.
// The diffing algorithm is fixed; the rules are tunable configuration.
type BadgePolicy struct {
	FirstStepMinGrade     int
	FastFuriousMinGrade   int
	FastFuriousWindow     time.Duration
	CleanCodeMinGrade     int
	CleanCodeAssignments  int
	BugHunterMinGrade     int
	BugHunterAssignments  int
	OnFireConsecutiveDays int
}

// XPPolicy holds the experience-point derivation constants used by the
// leaderboard aggregator.
type XPPolicy struct {
	CleanCodeBonusXP   int
	CleanCodeMinGrade  int
	EarlyBirdBonusXP   int
	EarlyBirdWindow    time.Duration
	CompletionMinGrade int
	StreakWindowWeeks  int
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	DashboardCacheTTL time.Duration
	OpenAIAPIKey      string
	GradingModel      string
	GradingMaxTokens  int
	Badges            BadgePolicy
	XP                XPPolicy
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CODEGRADE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CodeGrade API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("grading.model", "gpt-4o-mini")
	v.SetDefault("grading.max_tokens", 2048)

	v.SetDefault("badges.first_step_min_grade", 1)
	v.SetDefault("badges.fast_furious_min_grade", 80)
	v.SetDefault("badges.fast_furious_window_hours", 12)
	v.SetDefault("badges.clean_code_min_grade", 95)
	v.SetDefault("badges.clean_code_assignments", 3)
	v.SetDefault("badges.bug_hunter_min_grade", 60)
	v.SetDefault("badges.bug_hunter_assignments", 5)
	v.SetDefault("badges.on_fire_days", 5)

	v.SetDefault("xp.clean_code_bonus", 5)
	v.SetDefault("xp.clean_code_min_grade", 96)
	v.SetDefault("xp.early_bird_bonus", 10)
	v.SetDefault("xp.early_bird_window_hours", 24)
	v.SetDefault("xp.completion_min_grade", 70)
	v.SetDefault("xp.streak_weeks", 1)

	ttlString := v.GetString("dashboard.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		DashboardCacheTTL: ttl,
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		GradingModel:      v.GetString("grading.model"),
		GradingMaxTokens:  v.GetInt("grading.max_tokens"),
		Badges: BadgePolicy{
			FirstStepMinGrade:     v.GetInt("badges.first_step_min_grade"),
			FastFuriousMinGrade:   v.GetInt("badges.fast_furious_min_grade"),
			FastFuriousWindow:     time.Duration(v.GetInt("badges.fast_furious_window_hours")) * time.Hour,
			CleanCodeMinGrade:     v.GetInt("badges.clean_code_min_grade"),
			CleanCodeAssignments:  v.GetInt("badges.clean_code_assignments"),
			BugHunterMinGrade:     v.GetInt("badges.bug_hunter_min_grade"),
			BugHunterAssignments:  v.GetInt("badges.bug_hunter_assignments"),
			OnFireConsecutiveDays: v.GetInt("badges.on_fire_days"),
		},
		XP: XPPolicy{
			CleanCodeBonusXP:   v.GetInt("xp.clean_code_bonus"),
			CleanCodeMinGrade:  v.GetInt("xp.clean_code_min_grade"),
			EarlyBirdBonusXP:   v.GetInt("xp.early_bird_bonus"),
			EarlyBirdWindow:    time.Duration(v.GetInt("xp.early_bird_window_hours")) * time.Hour,
			CompletionMinGrade: v.GetInt("xp.completion_min_grade"),
			StreakWindowWeeks:  v.GetInt("xp.streak_weeks"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.XP.StreakWindowWeeks <= 0 {
		cfg.XP.StreakWindowWeeks = 1
	}

	return cfg, nil
}
