// Package events fans dashboard notification events out to NATS for
// consumption by other platform services.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher publishes dashboard events to NATS.
//
// Subject convention: notifications.dashboard.<action>
// Actions: created, updated, deleted
//
// All publish operations are non-fatal — errors are logged but never
// propagated to the caller, so fan-out failures never interrupt
// dashboard operations. A nil *Publisher is valid and publishes nothing.
type Publisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// Event is the JSON schema published to NATS.
type Event struct {
	EventType   string         `json:"event_type"`
	Action      string         `json:"action"`
	EntityID    string         `json:"entity_id,omitempty"`
	EntityType  string         `json:"entity_type,omitempty"`
	ActorID     string         `json:"actor_id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Connect dials NATS and returns a publisher.
func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("dash-approvals"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, log: log}, nil
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.log.Warn().Err(err).Msg("events: failed to drain NATS connection")
	}
}

// Publish publishes a dashboard event. Subject: notifications.dashboard.<action>
func (p *Publisher) Publish(event *Event) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", event.EventType).Msg("events: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.dashboard.%s", event.Action)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("entity_id", event.EntityID).
			Msg("events: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("entity_id", event.EntityID).
		Msg("events: event published")
}
