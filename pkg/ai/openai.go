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
		Namespace: "assess",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assess",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading failures",
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

	tracer := otel.Tracer("github.com/hexlabs-dev/assess-go-api/pkg/ai/openai")
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
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingOutcome, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Float64("grading.max_score", input.MaxScore),
		attribute.Bool("grading.has_reference", input.ReferenceSolution != ""),
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
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradingPrompt(input),
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
	outcome, err := ParseGradingResponse(content, input.MaxScore)
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingOutcome{}, err
	}

	span.SetAttributes(
		attribute.Float64("grading.score", outcome.Score),
		attribute.Float64("grading.confidence", outcome.Confidence),
	)

	return outcome, nil
}

// ParseGradingResponse validates the model's JSON against the grading
// schema, then maps and normalizes it into a GradingOutcome.
func ParseGradingResponse(content string, maxScore float64) (GradingOutcome, error) {
	content = stripCodeFences(content)

	if err := validateGradingJSON(content); err != nil {
		return GradingOutcome{}, fmt.Errorf("grading response schema: %w", err)
	}

	var outcome GradingOutcome
	if err := json.Unmarshal([]byte(content), &outcome); err != nil {
		return GradingOutcome{}, fmt.Errorf("parse grading json: %w", err)
	}

	return normalizeOutcome(outcome, maxScore), nil
}

func normalizeOutcome(outcome GradingOutcome, maxScore float64) GradingOutcome {
	if maxScore <= 0 {
		maxScore = 100
	}

	if outcome.Score < 0 {
		outcome.Score = 0
	}
	if outcome.Score > maxScore {
		outcome.Score = maxScore
	}

	percentage := outcome.Score / maxScore * 100
	outcome.Percentage = float64(int(percentage + 0.5))

	if outcome.Grade == "" {
		outcome.Grade = LetterGrade(outcome.Percentage)
	}

	if outcome.OverallFeedback == "" {
		outcome.OverallFeedback = "Submission has been graded."
	}

	if outcome.Confidence <= 0 {
		outcome.Confidence = 0.8
	}
	if outcome.Confidence > 1 {
		outcome.Confidence = 1
	}

	if len(outcome.RubricBreakdown) == 0 {
		outcome.RubricBreakdown = map[string]RubricItem{
			"overall": {Score: outcome.Score, Comment: "Overall assessment"},
		}
	}

	outcome.GradingMethod = GradingMethodComparison

	return outcome
}

// LetterGrade converts a percentage to a letter grade.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 97:
		return "A+"
	case percentage >= 93:
		return "A"
	case percentage >= 90:
		return "A-"
	case percentage >= 87:
		return "B+"
	case percentage >= 83:
		return "B"
	case percentage >= 80:
		return "B-"
	case percentage >= 77:
		return "C+"
	case percentage >= 73:
		return "C"
	case percentage >= 70:
		return "C-"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func graderSystemPrompt() string {
	return "You are an expert educational AI assistant tasked with grading student assignments. " +
		"Compare the student's submission against the reference solution provided by the educator " +
		"and assign a fair, detailed grade. Respond ONLY with the requested JSON object."
}

func buildGradingPrompt(input GradingInput) string {
	criteria := input.GradingCriteria
	if criteria == "" {
		criteria = "Standard academic grading criteria: correctness, completeness, clarity, methodology, and presentation."
	}

	reference := input.ReferenceSolution
	if reference == "" {
		reference = "No reference solution provided - grade based on assignment requirements."
	}

	submission := input.StudentSubmission
	if submission == "" {
		submission = "No text submission provided."
	}

	builder := strings.Builder{}
	builder.WriteString("**ASSIGNMENT DETAILS:**\n")
	fmt.Fprintf(&builder, "Title: %s\n", input.AssignmentTitle)
	fmt.Fprintf(&builder, "Description: %s\n", input.AssignmentDescription)
	fmt.Fprintf(&builder, "Maximum Score: %.0f points\n\n", input.MaxScore)

	builder.WriteString("**GRADING CRITERIA:**\n")
	builder.WriteString(criteria)
	builder.WriteString("\n\n**REFERENCE SOLUTION (Educator's Model Answer):**\n")
	builder.WriteString(reference)
	builder.WriteString("\n\n**STUDENT SUBMISSION:**\n")
	builder.WriteString(submission)
	builder.WriteString(buildFileSection(input.StudentFileURL, input.ReferenceFileURL))

	builder.WriteString("\n\n**GRADING INSTRUCTIONS:**\n")
	builder.WriteString("1. Compare the student's work against the reference solution\n")
	builder.WriteString("2. Evaluate based on the grading criteria provided\n")
	builder.WriteString("3. Consider both correctness and approach/methodology\n")
	builder.WriteString("4. Be fair and constructive in your assessment\n")
	fmt.Fprintf(&builder, "5. Assign a numerical score out of %.0f\n\n", input.MaxScore)

	builder.WriteString("**RESPONSE FORMAT (JSON):**\n")
	builder.WriteString(`{"score": number, "percentage": number, "grade": "letter grade A+..F", ` +
		`"overallFeedback": "2-3 sentence assessment", ` +
		`"detailedAnalysis": {"correctness": {"score": number, "feedback": "..."}, "completeness": {...}, "methodology": {...}, "presentation": {...}}, ` +
		`"comparisonWithReference": {"similarities": ["..."], "differences": ["..."], "improvements": ["..."]}, ` +
		`"strengths": ["..."], "areasForImprovement": ["..."], "specificFeedback": ["..."], "recommendations": ["..."], ` +
		`"confidence": number between 0 and 1, ` +
		`"rubricBreakdown": {"criteria1": {"score": number, "comment": "..."}}}`)
	builder.WriteString("\n\n**GRADING STANDARDS:**\n")
	builder.WriteString("- A (90-100%): Exceptional work that meets or exceeds all requirements\n")
	builder.WriteString("- B (80-89%): Good work with minor issues or missing elements\n")
	builder.WriteString("- C (70-79%): Satisfactory work that meets basic requirements\n")
	builder.WriteString("- D (60-69%): Below average work with significant issues\n")
	builder.WriteString("- F (0-59%): Failing work that doesn't meet minimum requirements\n")

	return builder.String()
}

func buildFileSection(studentFileURL, referenceFileURL string) string {
	if studentFileURL == "" && referenceFileURL == "" {
		return ""
	}

	builder := strings.Builder{}
	builder.WriteString("\n\n**FILES SUBMITTED:**")
	if referenceFileURL != "" {
		fmt.Fprintf(&builder, "\nREFERENCE FILE: %s", referenceFileURL)
	}
	if studentFileURL != "" {
		fmt.Fprintf(&builder, "\nSTUDENT FILE: %s", studentFileURL)
	}
	builder.WriteString("\n(Note: Evaluate based on file content if accessible, otherwise focus on text submissions)")
	return builder.String()
}
