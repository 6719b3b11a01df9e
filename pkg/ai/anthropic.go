package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
)

// AnthropicConfig defines configuration options for the Anthropic grader.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Logger    zerolog.Logger
}

// AnthropicGrader implements Grader against the Anthropic messages API.
type AnthropicGrader struct {
	httpClient *http.Client
	cfg        AnthropicConfig
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewAnthropicGrader builds a new grader using the provided configuration.
func NewAnthropicGrader(cfg AnthropicConfig) (*AnthropicGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-latest"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &AnthropicGrader{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		cfg:        cfg,
		tracer:     otel.Tracer("github.com/hexlabs-dev/assess-go-api/pkg/ai/anthropic"),
		logger:     logger,
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Grade sends the grading request to Anthropic and parses the response.
func (g *AnthropicGrader) Grade(parent context.Context, input GradingInput) (GradingOutcome, error) {
	ctx, span := g.tracer.Start(parent, "anthropic.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Float64("grading.max_score", input.MaxScore),
		attribute.Bool("grading.has_reference", input.ReferenceSolution != ""),
	))
	defer span.End()

	payload, err := json.Marshal(anthropicRequest{
		Model:     g.cfg.Model,
		MaxTokens: g.cfg.MaxTokens,
		System:    graderSystemPrompt(),
		Messages: []anthropicMessage{
			{Role: "user", Content: buildGradingPrompt(input)},
		},
	})
	if err != nil {
		return GradingOutcome{}, fmt.Errorf("anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(payload))
	if err != nil {
		return GradingOutcome{}, fmt.Errorf("anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	gradingDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingOutcome{}, fmt.Errorf("anthropic grade: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingOutcome{}, fmt.Errorf("anthropic response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingOutcome{}, fmt.Errorf("anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		message := resp.Status
		if parsed.Error != nil {
			message = parsed.Error.Message
		}
		err := fmt.Errorf("anthropic grade: %s", message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingOutcome{}, err
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingOutcome{}, fmt.Errorf("no text content returned from anthropic")
	}

	outcome, err := ParseGradingResponse(strings.TrimSpace(text.String()), input.MaxScore)
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
