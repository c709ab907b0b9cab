package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// GradingCompletedEvent is emitted after every AI grading pass so downstream
// consumers (notifications, analytics) can react without polling.
type GradingCompletedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	TriggeredBy  uint      `json:"triggered_by"`
	Scored       int       `json:"scored"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	CompletedAt  time.Time `json:"completed_at"`
}

// GradingEventPublisher publishes grading lifecycle events. Publishing is
// best-effort; a failed publish never fails the grading run.
type GradingEventPublisher interface {
	PublishGradingCompleted(ctx context.Context, event GradingCompletedEvent) error
}

type natsGradingPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSGradingPublisher constructs a publisher on the given subject.
func NewNATSGradingPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) GradingEventPublisher {
	if subject == "" {
		subject = "sage.grading.completed"
	}

	return &natsGradingPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "grading_publisher").Logger(),
	}
}

func (p *natsGradingPublisher) PublishGradingCompleted(_ context.Context, event GradingCompletedEvent) error {
	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish grading event")
		return err
	}

	return nil
}
