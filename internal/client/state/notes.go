package state

import (
	"context"

	"github.com/supportdesk/apiserver/internal/client"
	"github.com/supportdesk/apiserver/types"
)

// NotesSlice tracks the notes of the currently viewed ticket.
//
// Reset policy: Fetch clears stale notes on start, since a note list always
// belongs to one specific ticket and stale entries from another ticket must
// never be rendered.
type NotesSlice struct {
	base *slice

	notes Tracker[[]types.Note]
}

func newNotesSlice(base *slice) *NotesSlice {
	return &NotesSlice{base: base}
}

// Fetch loads the notes of a ticket.
func (s *NotesSlice) Fetch(ctx context.Context, ticketID int) error {
	s.base.mu.Lock()
	s.notes.Start(true)
	s.base.mu.Unlock()

	notes, err := s.base.api.ListNotes(ctx, ticketID)
	s.base.mu.Lock()
	defer s.base.mu.Unlock()
	if err != nil {
		s.notes.Fail(client.ErrorMessage(err))
		return err
	}
	s.notes.Succeed(notes)
	return nil
}

// Add appends a note to the ticket and to the loaded note list.
func (s *NotesSlice) Add(ctx context.Context, ticketID int, text string) (types.Note, error) {
	note, err := s.base.api.AddNote(ctx, ticketID, text)
	s.base.mu.Lock()
	defer s.base.mu.Unlock()
	if err != nil {
		s.notes.Fail(client.ErrorMessage(err))
		return types.Note{}, err
	}

	view := s.notes.Snapshot()
	if view.HasPayload {
		s.notes.Succeed(append(view.Payload, note))
	} else {
		s.notes.Succeed([]types.Note{note})
	}
	return note, nil
}

// View returns a snapshot of the notes state.
func (s *NotesSlice) View() View[[]types.Note] {
	s.base.mu.RLock()
	defer s.base.mu.RUnlock()
	return s.notes.Snapshot()
}
