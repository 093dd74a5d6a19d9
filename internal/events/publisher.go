// Package events publishes pipeline lifecycle events to NATS so downstream
// consumers (notifications, search indexing) can react without coupling to
// the API process.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects for pipeline events.
const (
	SubjectSubmissionSubmitted = "content.submission.submitted"
	SubjectSubmissionWithdrawn = "content.submission.withdrawn"
	SubjectDecisionRecorded    = "content.moderation.decision"
	SubjectTicketEscalated     = "content.moderation.escalated"
)

// SubmissionEvent is the payload for submission lifecycle subjects.
type SubmissionEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	ContentType  string    `json:"content_type"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ModerationEvent is the payload for moderation subjects.
type ModerationEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	TicketID     uuid.UUID `json:"ticket_id"`
	ModeratorID  uuid.UUID `json:"moderator_id"`
	Decision     string    `json:"decision,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher pushes events to NATS. A nil connection disables publishing, so
// callers never need to guard against missing infrastructure.
type Publisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewPublisher wires a publisher over the given connection. conn may be nil.
func NewPublisher(conn *nats.Conn, logger zerolog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Publish marshals the payload and sends it on the subject. Failures are
// logged, never returned: event delivery is best effort and must not fail
// the originating request.
func (p *Publisher) Publish(subject string, payload interface{}) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to marshal event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
