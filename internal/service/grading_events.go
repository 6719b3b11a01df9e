package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// GradingEvent announces a completed AI grading run to other read
// paths. Delivery is best-effort; consumers must tolerate gaps.
type GradingEvent struct {
	SubmissionID string    `json:"submission_id"`
	StudentID    string    `json:"student_id"`
	AssignmentID string    `json:"assignment_id"`
	Score        float64   `json:"score"`
	Percentage   float64   `json:"percentage"`
	Confidence   float64   `json:"confidence"`
	GradedBy     string    `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}

// GradingEventPublisher publishes grading completion events.
type GradingEventPublisher interface {
	Publish(ctx context.Context, event GradingEvent) error
}

type natsGradingPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSGradingPublisher builds a publisher over a NATS connection.
func NewNATSGradingPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) GradingEventPublisher {
	if subject == "" {
		subject = "assess.grading.completed"
	}
	return &natsGradingPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "grading_publisher").Logger(),
	}
}

func (p *natsGradingPublisher) Publish(_ context.Context, event GradingEvent) error {
	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return err
	}

	p.logger.Debug().Str("submission_id", event.SubmissionID).Msg("grading event published")
	return nil
}
