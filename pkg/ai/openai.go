package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
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
		Namespace: "atrium",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atrium",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"model"})
)

// defaultSubmissionCharBudget bounds how much submission text is sent to the
// model. Longer documents are truncated keeping the head.
const defaultSubmissionCharBudget = 12000

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	MaxTokens       int
	Temperature     float32
	SubmissionChars int
	Logger          zerolog.Logger
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
		cfg.MaxTokens = 1024
	}

	if cfg.SubmissionChars <= 0 {
		cfg.SubmissionChars = defaultSubmissionCharBudget
	}

	tracer := otel.Tracer("github.com/atrium-edu/atrium-go-api/pkg/ai/openai")
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

// Grade sends the grading request to OpenAI and parses the response.
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
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
				Content: graderSystemPrompt(input.Persona),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradingPrompt(input, g.cfg.SubmissionChars),
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
		return GradingResult{}, &Failure{Reason: "chat completion", Err: err}
	}

	if len(resp.Choices) == 0 {
		failure := &Failure{Reason: "no choices returned"}
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(failure)
		span.SetStatus(codes.Error, failure.Error())
		return GradingResult{}, failure
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := ParseGradingResponse(content)
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func graderSystemPrompt(persona string) string {
	builder := strings.Builder{}
	builder.WriteString("You are an automated assignment grader for a learning platform. ")
	if persona != "" {
		builder.WriteString(persona)
		builder.WriteString(" ")
	}
	builder.WriteString("Respond with a single JSON object containing exactly three fields: " +
		"grade (a number between 0 and the stated maximum), feedback (student-facing text) " +
		"and analysis (a detailed breakdown of how the grade was derived). No other output.")
	return builder.String()
}

func buildGradingPrompt(input GradingInput, charBudget int) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	builder.WriteString("\n\n## Description\n")
	builder.WriteString(input.AssignmentDescription)
	builder.WriteString(fmt.Sprintf("\n\n## Maximum Points\n%g\n", input.MaxPoints))
	if len(input.Questions) > 0 {
		builder.WriteString("\n## Questions\n")
		for i, question := range input.Questions {
			builder.WriteString(fmt.Sprintf("%d. (%g marks) %s\n", i+1, question.Marks, question.Text))
		}
	}
	builder.WriteString("\n## Submission\n")
	builder.WriteString(truncateText(input.SubmissionText, charBudget))
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

// truncateText limits text to budget characters, preserving the head of the
// document so the opening of the submission is always graded.
func truncateText(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + "\n[... truncated ...]"
}

// ParseGradingResponse parses a grading payload from raw model output.
// Code fences and surrounding prose are stripped before decoding. A missing
// or non-numeric grade is a Failure even when the transport call succeeded.
func ParseGradingResponse(content string) (GradingResult, error) {
	trimmed := stripCodeFences(content)

	type payload struct {
		Grade    *json.Number `json:"grade"`
		Feedback string       `json:"feedback"`
		Analysis string       `json:"analysis"`
	}

	var data payload
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return GradingResult{}, &Failure{Reason: "parse grading json", Err: err}
	}

	if data.Grade == nil {
		return GradingResult{}, &Failure{Reason: "grade field missing from response"}
	}

	grade, err := data.Grade.Float64()
	if err != nil {
		return GradingResult{}, &Failure{Reason: "grade field is not numeric", Err: err}
	}

	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return GradingResult{}, &Failure{Reason: "grade field is not a finite number"}
	}

	return GradingResult{
		Grade:    grade,
		Feedback: data.Feedback,
		Analysis: data.Analysis,
	}, nil
}

// stripCodeFences removes markdown fences and any prose around the first
// JSON object in the content.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}

	return trimmed
}
