// Package eventpublisher delivers ledger events to logs or Kafka.
package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/domain"
)

// Message is the wire form of a ledger event.
type Message struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	AccountID  string         `json:"account_id"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewMessage converts a domain event to its wire form.
func NewMessage(event *domain.Event) Message {
	return Message{
		ID:         event.ID,
		Type:       event.Type,
		AccountID:  event.AccountID,
		Payload:    event.Payload,
		OccurredAt: event.OccurredAt.UTC(),
	}
}

// Encode renders the event as JSON.
func Encode(event *domain.Event) ([]byte, error) {
	return json.Marshal(NewMessage(event))
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("account_id", event.AccountID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error {
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, *domain.Event) error { return nil }

// Close is a no-op.
func (NopPublisher) Close() error { return nil }
