package state

import (
	"sync"

	"github.com/supportdesk/apiserver/internal/client"
	"github.com/supportdesk/apiserver/internal/client/session"
)

// slice is the shared base of all state slices: the API client plus the lock
// guarding the slice's trackers.
type slice struct {
	mu  sync.RWMutex
	api *client.Client
}

// Store is the application-state container. It is injected, not global: each
// slice is an independent state machine over one group of operations, and the
// auth slice is seeded from the persisted session before first use.
type Store struct {
	Auth    *AuthSlice
	Tickets *TicketsSlice
	Notes   *NotesSlice
}

// New constructs a Store bound to the given API client and session storage.
func New(api *client.Client, sessions *session.FileStore) *Store {
	return &Store{
		Auth:    newAuthSlice(&slice{api: api}, sessions),
		Tickets: newTicketsSlice(&slice{api: api}),
		Notes:   newNotesSlice(&slice{api: api}),
	}
}

// LoggedIn reports whether a session is present. Presence of a stored token
// is the sole startup criterion; the server is not re-queried.
func (s *Store) LoggedIn() bool {
	_, ok := s.Auth.Current()
	return ok
}
