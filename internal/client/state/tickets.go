package state

import (
	"context"

	"github.com/supportdesk/apiserver/internal/client"
	"github.com/supportdesk/apiserver/types"
)

// TicketsSlice tracks the ticket list and the single-ticket detail view.
// Both trackers live behind one lock so the close transition can update the
// detail and the matching list entry atomically: no reader ever observes the
// two views disagreeing about a ticket's status.
//
// Reset policy: Fetch clears the stale list so the UI shows a loading state;
// FetchOne keeps the stale detail visible until the fresh ticket arrives.
type TicketsSlice struct {
	base *slice

	list   Tracker[[]types.Ticket]
	detail Tracker[types.Ticket]
}

func newTicketsSlice(base *slice) *TicketsSlice {
	return &TicketsSlice{base: base}
}

// Fetch loads the user's tickets.
func (s *TicketsSlice) Fetch(ctx context.Context) error {
	s.base.mu.Lock()
	s.list.Start(true)
	s.base.mu.Unlock()

	tickets, err := s.base.api.ListTickets(ctx)
	s.base.mu.Lock()
	defer s.base.mu.Unlock()
	if err != nil {
		s.list.Fail(client.ErrorMessage(err))
		return err
	}
	s.list.Succeed(tickets)
	return nil
}

// FetchOne loads a single ticket into the detail view.
func (s *TicketsSlice) FetchOne(ctx context.Context, id int) error {
	s.base.mu.Lock()
	s.detail.Start(false)
	s.base.mu.Unlock()

	ticket, err := s.base.api.GetTicket(ctx, id)
	s.base.mu.Lock()
	defer s.base.mu.Unlock()
	if err != nil {
		s.detail.Fail(client.ErrorMessage(err))
		return err
	}
	s.detail.Succeed(ticket)
	return nil
}

// Create files a new ticket. On success the ticket is appended to the list
// view when one is loaded.
func (s *TicketsSlice) Create(ctx context.Context, product, description string) (types.Ticket, error) {
	s.base.mu.Lock()
	s.list.Start(false)
	s.base.mu.Unlock()

	ticket, err := s.base.api.CreateTicket(ctx, product, description)
	s.base.mu.Lock()
	defer s.base.mu.Unlock()
	if err != nil {
		s.list.Fail(client.ErrorMessage(err))
		return types.Ticket{}, err
	}

	view := s.list.Snapshot()
	if view.HasPayload {
		s.list.Succeed(append(view.Payload, ticket))
	} else {
		s.list.Succeed([]types.Ticket{ticket})
	}
	return ticket, nil
}

// Close marks the ticket closed. The detail view and the matching list entry
// are both updated inside a single locked transition.
func (s *TicketsSlice) Close(ctx context.Context, id int) error {
	s.base.mu.Lock()
	s.detail.Start(false)
	s.base.mu.Unlock()

	updated, err := s.base.api.CloseTicket(ctx, id)
	s.base.mu.Lock()
	defer s.base.mu.Unlock()
	if err != nil {
		s.detail.Fail(client.ErrorMessage(err))
		return err
	}

	s.detail.Succeed(updated)
	s.list.Update(func(tickets []types.Ticket) []types.Ticket {
		for i := range tickets {
			if tickets[i].ID == updated.ID {
				tickets[i] = updated
			}
		}
		return tickets
	})
	return nil
}

// List returns a snapshot of the ticket list view.
func (s *TicketsSlice) List() View[[]types.Ticket] {
	s.base.mu.RLock()
	defer s.base.mu.RUnlock()
	return s.list.Snapshot()
}

// Detail returns a snapshot of the single-ticket view.
func (s *TicketsSlice) Detail() View[types.Ticket] {
	s.base.mu.RLock()
	defer s.base.mu.RUnlock()
	return s.detail.Snapshot()
}
