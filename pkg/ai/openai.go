package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	gradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codegrade",
		Subsystem: "oracle",
		Name:      "grading_duration_seconds",
		Help:      "Duration of grading oracle requests",
	}, []string{"model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codegrade",
		Subsystem: "oracle",
		Name:      "grading_failures_total",
		Help:      "Number of grading oracle failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/misolmaz/codegrade-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Grade sends the grading request to OpenAI and parses the JSON verdict.
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingOutcome, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("student_level", input.StudentLevel),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(input.StudentLevel),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	gradingDuration.WithLabelValues(g.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingOutcome{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingOutcome{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	outcome, err := parseGradingResponse(content)
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingOutcome{}, err
	}

	span.SetAttributes(attribute.Int("grade", outcome.Grade))

	return outcome, nil
}

type levelProfile struct {
	Focus   string
	Depth   string
	Grading string
}

var levelProfiles = map[string]levelProfile{
	"beginner": {
		Focus:   "fundamental concepts, syntax, debugging",
		Depth:   "simple explanations, minimal jargon, at most two improvement suggestions",
		Grading: "working code and basic requirements first",
	},
	"intermediate": {
		Focus:   "code organization, clean code, moderate optimization",
		Depth:   "intermediate terminology, best practices, three to four suggestions",
		Grading: "quality, readability, basic optimization",
	},
	"advanced": {
		Focus:   "algorithmic optimization, security, design patterns",
		Depth:   "professional standards, complexity analysis, alternative approaches",
		Grading: "performance, scalability, maintainability",
	},
}

func graderSystemPrompt(studentLevel string) string {
	profile, ok := levelProfiles[strings.ToLower(strings.TrimSpace(studentLevel))]
	if !ok {
		profile = levelProfiles["intermediate"]
	}

	builder := strings.Builder{}
	builder.WriteString("You are an experienced, patient computer science professor grading a student's code submission. ")
	builder.WriteString("Calibrate to the student's level.\n")
	builder.WriteString("Focus areas: " + profile.Focus + "\n")
	builder.WriteString("Technical depth: " + profile.Depth + "\n")
	builder.WriteString("Grading priority: " + profile.Grading + "\n")
	builder.WriteString("Mentally execute the code and derive unit test results. ")
	builder.WriteString("Grade on a 1-100 scale; never return 0, it is reserved for pipeline failures. ")
	builder.WriteString("Respond with a JSON object matching this schema exactly: ")
	builder.WriteString(`{"grade": integer, "feedback": string, "codeQuality": string, "suggestions": [string], "unitTests": [{"testName": string, "passed": boolean, "message": string}]}`)
	return builder.String()
}

func buildUserPrompt(input GradingInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.Description)
	builder.WriteString("\n\n## Target Language\n")
	builder.WriteString(input.Language)
	builder.WriteString("\n\n## Student Level\n")
	builder.WriteString(input.StudentLevel)
	builder.WriteString("\n\n## Student Code\n")
	builder.WriteString(input.Code)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseGradingResponse(content string) (GradingOutcome, error) {
	var outcome GradingOutcome
	if err := json.Unmarshal([]byte(content), &outcome); err != nil {
		return GradingOutcome{}, fmt.Errorf("parse grading json: %w", err)
	}

	if outcome.Suggestions == nil {
		outcome.Suggestions = []string{}
	}
	if outcome.UnitTests == nil {
		outcome.UnitTests = []UnitTestResult{}
	}

	return outcome, nil
}
