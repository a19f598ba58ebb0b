package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/supportdesk/apiserver/internal/events"
	"github.com/supportdesk/apiserver/internal/storage"
	"github.com/supportdesk/apiserver/types"
)

// TicketRepository defines persistence operations for tickets.
type TicketRepository interface {
	ListByOwner(ctx context.Context, ownerID int) ([]types.Ticket, error)
	GetByID(ctx context.Context, id int) (types.Ticket, error)
	Create(ctx context.Context, ticket types.Ticket) (types.Ticket, error)
	Update(ctx context.Context, ticket types.Ticket) (types.Ticket, error)
	Delete(ctx context.Context, id int) error
}

// TicketService encapsulates ticket use-cases. Every read or write against a
// specific ticket checks that the acting user owns it; a mismatch yields
// ErrForbidden before any storage access happens.
type TicketService struct {
	repo      TicketRepository
	publisher *events.Publisher
	storage   *storage.Storage
}

func NewTicketService(repo TicketRepository) *TicketService {
	return &TicketService{repo: repo}
}

// WithPublisher enables ticket-event publishing.
func (s *TicketService) WithPublisher(publisher *events.Publisher) *TicketService {
	s.publisher = publisher
	return s
}

// WithStorage enables attachment storage.
func (s *TicketService) WithStorage(st *storage.Storage) *TicketService {
	s.storage = st
	return s
}

// AttachmentsEnabled reports whether an object storage backend is configured.
func (s *TicketService) AttachmentsEnabled() bool {
	return s.storage != nil
}

func (s *TicketService) ListForOwner(ctx context.Context, ownerID int) ([]types.Ticket, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// GetOwned returns the ticket only if ownerID owns it.
func (s *TicketService) GetOwned(ctx context.Context, id, ownerID int) (types.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Ticket{}, err
	}
	if ticket.OwnerID != ownerID {
		return types.Ticket{}, ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) Create(ctx context.Context, ticket types.Ticket) (types.Ticket, error) {
	if ticket.Status == "" {
		ticket.Status = types.TicketStatusNew
	}
	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		return types.Ticket{}, err
	}
	s.publish(ctx, events.TicketCreated, created)
	return created, nil
}

// UpdateOwned applies an update to a ticket after verifying ownership.
// Closing a ticket emits a ticket.closed event.
func (s *TicketService) UpdateOwned(ctx context.Context, ticket types.Ticket, ownerID int) (types.Ticket, error) {
	current, err := s.GetOwned(ctx, ticket.ID, ownerID)
	if err != nil {
		return types.Ticket{}, err
	}

	ticket.OwnerID = current.OwnerID
	ticket.CreatedAt = current.CreatedAt
	updated, err := s.repo.Update(ctx, ticket)
	if err != nil {
		return types.Ticket{}, err
	}

	if current.Status != types.TicketStatusClosed && updated.Status == types.TicketStatusClosed {
		s.publish(ctx, events.TicketClosed, updated)
	}
	return updated, nil
}

func (s *TicketService) DeleteOwned(ctx context.Context, id, ownerID int) error {
	if _, err := s.GetOwned(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// PutAttachment stores an attachment for a ticket the owner controls.
func (s *TicketService) PutAttachment(ctx context.Context, ticketID, ownerID int, name string, r io.Reader, size int64, contentType string) error {
	if _, err := s.GetOwned(ctx, ticketID, ownerID); err != nil {
		return err
	}
	return s.storage.Put(ctx, attachmentKey(ticketID, name), r, size, contentType)
}

// GetAttachment opens an attachment for a ticket the owner controls.
func (s *TicketService) GetAttachment(ctx context.Context, ticketID, ownerID int, name string) (io.ReadCloser, error) {
	if _, err := s.GetOwned(ctx, ticketID, ownerID); err != nil {
		return nil, err
	}
	return s.storage.Get(ctx, attachmentKey(ticketID, name))
}

// DeleteAttachment removes an attachment for a ticket the owner controls.
func (s *TicketService) DeleteAttachment(ctx context.Context, ticketID, ownerID int, name string) error {
	if _, err := s.GetOwned(ctx, ticketID, ownerID); err != nil {
		return err
	}
	return s.storage.Delete(ctx, attachmentKey(ticketID, name))
}

func (s *TicketService) publish(ctx context.Context, eventType string, ticket types.Ticket) {
	if s.publisher == nil {
		return
	}
	event := events.TicketEvent{
		Type:     eventType,
		TicketID: ticket.ID,
		OwnerID:  ticket.OwnerID,
		Product:  ticket.Product,
		Status:   ticket.Status,
	}
	// Event delivery is best effort; a broker outage must not fail the request.
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish ticket event", "type", eventType, "ticket_id", ticket.ID, "error", err)
	}
}

func attachmentKey(ticketID int, name string) string {
	return fmt.Sprintf("tickets/%d/attachments/%s", ticketID, name)
}
