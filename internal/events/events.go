// Package events publishes and consumes ticket lifecycle events over a
// broker-agnostic backend (RabbitMQ or Google Cloud Pub/Sub).
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types carried in the message attributes and envelope.
const (
	TicketCreated = "ticket.created"
	TicketClosed  = "ticket.closed"
	NoteAdded     = "note.added"
)

const attrEventType = "event_type"

// TicketEvent is the envelope published for every ticket lifecycle change.
type TicketEvent struct {
	Type     string    `json:"type"`
	TicketID int       `json:"ticket_id"`
	OwnerID  int       `json:"owner_id"`
	Product  string    `json:"product"`
	Status   string    `json:"status"`
	NoteID   int       `json:"note_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher sends ticket events to a fixed channel on the backend.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher bound to the given backend and channel.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// Publish serializes the event and sends it to the configured channel.
func (p *Publisher) Publish(ctx context.Context, event TicketEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.backend.Publish(ctx, p.channel, data, map[string]string{
		attrEventType: event.Type,
	})
	return err
}

// Subscribe consumes ticket events from the configured channel until the
// context is cancelled. Malformed payloads are dropped, not redelivered.
func (p *Publisher) Subscribe(ctx context.Context, handle func(ctx context.Context, event TicketEvent) error) error {
	return p.backend.Subscribe(ctx, p.channel, func(ctx context.Context, msg Message) error {
		var event TicketEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return handle(ctx, event)
	})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
