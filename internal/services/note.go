package services

import (
	"context"
	"log/slog"

	"github.com/supportdesk/apiserver/internal/events"
	"github.com/supportdesk/apiserver/types"
)

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	ListByTicket(ctx context.Context, ticketID int) ([]types.Note, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
}

// NoteService encapsulates note use-cases. Access is gated by the parent
// ticket's ownership, checked through the ticket service.
type NoteService struct {
	repo      NoteRepository
	tickets   *TicketService
	publisher *events.Publisher
}

func NewNoteService(repo NoteRepository, tickets *TicketService) *NoteService {
	return &NoteService{repo: repo, tickets: tickets}
}

// WithPublisher enables note-event publishing.
func (s *NoteService) WithPublisher(publisher *events.Publisher) *NoteService {
	s.publisher = publisher
	return s
}

// ListForTicket returns the notes of a ticket the owner controls.
func (s *NoteService) ListForTicket(ctx context.Context, ticketID, ownerID int) ([]types.Note, error) {
	if _, err := s.tickets.GetOwned(ctx, ticketID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByTicket(ctx, ticketID)
}

// Add creates a note on a ticket the author owns.
func (s *NoteService) Add(ctx context.Context, ticketID, authorID int, text string) (types.Note, error) {
	ticket, err := s.tickets.GetOwned(ctx, ticketID, authorID)
	if err != nil {
		return types.Note{}, err
	}

	note, err := s.repo.Create(ctx, types.Note{
		TicketID: ticketID,
		AuthorID: authorID,
		Text:     text,
		IsStaff:  false,
	})
	if err != nil {
		return types.Note{}, err
	}

	if s.publisher != nil {
		event := events.TicketEvent{
			Type:     events.NoteAdded,
			TicketID: ticket.ID,
			OwnerID:  ticket.OwnerID,
			Product:  ticket.Product,
			Status:   ticket.Status,
			NoteID:   note.ID,
		}
		// Best effort, same as ticket events.
		if err := s.publisher.Publish(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish note event", "ticket_id", ticket.ID, "note_id", note.ID, "error", err)
		}
	}
	return note, nil
}
