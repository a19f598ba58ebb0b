package state

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/apiserver/internal/client"
	"github.com/supportdesk/apiserver/internal/client/session"
	"github.com/supportdesk/apiserver/types"
)

// fakeAPI is a minimal in-memory stand-in for the supportdesk server,
// speaking the same JSON surface the real handlers do.
type fakeAPI struct {
	token   string
	user    types.User
	tickets map[int]*types.Ticket
	notes   map[int][]types.Note
	nextID  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		token:   "fake-token",
		user:    types.User{ID: 1, Name: "Ada", Email: "ada@example.com"},
		tickets: map[int]*types.Ticket{},
		notes:   map[int][]types.Note{},
	}
}

func (f *fakeAPI) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) authed(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != f.user.Email || creds["password"] != "secret" {
			f.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"token": f.token, "user": f.user})
	})

	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		json.NewDecoder(r.Body).Decode(&fields)
		if fields["email"] == f.user.Email {
			f.writeError(w, http.StatusConflict, "user already exists")
			return
		}
		user := types.User{ID: 2, Name: fields["name"], Email: fields["email"]}
		f.writeJSON(w, http.StatusCreated, map[string]any{"token": f.token, "user": user})
	})

	mux.HandleFunc("/api/tickets", func(w http.ResponseWriter, r *http.Request) {
		if !f.authed(r) {
			f.writeError(w, http.StatusUnauthorized, "not authorized")
			return
		}
		switch r.Method {
		case http.MethodGet:
			tickets := []types.Ticket{}
			for _, ticket := range f.tickets {
				tickets = append(tickets, *ticket)
			}
			f.writeJSON(w, http.StatusOK, tickets)
		case http.MethodPost:
			var fields map[string]string
			json.NewDecoder(r.Body).Decode(&fields)
			f.nextID++
			ticket := types.Ticket{
				ID: f.nextID, OwnerID: f.user.ID,
				Product: fields["product"], Description: fields["description"],
				Status: types.TicketStatusNew, CreatedAt: time.Now(),
			}
			f.tickets[ticket.ID] = &ticket
			f.writeJSON(w, http.StatusCreated, ticket)
		}
	})

	mux.HandleFunc("/api/tickets/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authed(r) {
			f.writeError(w, http.StatusUnauthorized, "not authorized")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
		parts := strings.Split(rest, "/")
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			f.writeError(w, http.StatusBadRequest, "invalid ticket id")
			return
		}
		ticket, ok := f.tickets[id]
		if !ok {
			f.writeError(w, http.StatusNotFound, "ticket not found")
			return
		}

		if len(parts) > 1 && parts[1] == "notes" {
			switch r.Method {
			case http.MethodGet:
				notes := f.notes[id]
				if notes == nil {
					notes = []types.Note{}
				}
				f.writeJSON(w, http.StatusOK, notes)
			case http.MethodPost:
				var fields map[string]string
				json.NewDecoder(r.Body).Decode(&fields)
				note := types.Note{
					ID: len(f.notes[id]) + 1, TicketID: id,
					AuthorID: f.user.ID, Text: fields["text"], CreatedAt: time.Now(),
				}
				f.notes[id] = append(f.notes[id], note)
				f.writeJSON(w, http.StatusCreated, note)
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			f.writeJSON(w, http.StatusOK, *ticket)
		case http.MethodPut:
			var fields map[string]string
			json.NewDecoder(r.Body).Decode(&fields)
			if status := fields["status"]; status != "" {
				ticket.Status = status
			}
			f.writeJSON(w, http.StatusOK, *ticket)
		}
	})

	return mux
}

type storeFixture struct {
	store       *Store
	sessions    *session.FileStore
	sessionPath string
	serverURL   string
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	server := httptest.NewServer(newFakeAPI().handler())
	t.Cleanup(server.Close)

	sessionPath := filepath.Join(t.TempDir(), "session.json")
	sessions := session.NewFileStore(sessionPath)
	store := New(client.New(server.URL), sessions)

	return &storeFixture{
		store:       store,
		sessions:    sessions,
		sessionPath: sessionPath,
		serverURL:   server.URL,
	}
}

func (f *storeFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Auth.Login(context.Background(), "ada@example.com", "secret"))
}

func TestAuth_LoginPersistsSession(t *testing.T) {
	f := newStoreFixture(t)
	assert.False(t, f.store.LoggedIn())

	f.login(t)

	assert.True(t, f.store.LoggedIn())
	view := f.store.Auth.View()
	assert.Equal(t, Fulfilled, view.Phase)
	assert.Equal(t, "ada@example.com", view.Payload.Email)

	saved, ok := f.sessions.Load()
	require.True(t, ok)
	assert.Equal(t, "fake-token", saved.Token)
}

func TestAuth_NewStoreSeedsFromSessionFile(t *testing.T) {
	f := newStoreFixture(t)
	f.login(t)

	// A fresh store over the same session file is logged in without any
	// network call, and its API client carries the stored token.
	reopened := New(client.New(f.serverURL), f.sessions)
	assert.True(t, reopened.LoggedIn())

	require.NoError(t, reopened.Tickets.Fetch(context.Background()))
	assert.Equal(t, Fulfilled, reopened.Tickets.List().Phase)
}

func TestAuth_RejectedLoginStoresMessage(t *testing.T) {
	f := newStoreFixture(t)

	err := f.store.Auth.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)

	view := f.store.Auth.View()
	assert.Equal(t, Rejected, view.Phase)
	assert.Equal(t, "invalid credentials", view.Message)
	assert.False(t, f.store.LoggedIn())

	_, ok := f.sessions.Load()
	assert.False(t, ok)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	f := newStoreFixture(t)

	err := f.store.Auth.Register(context.Background(), "Ada", "ada@example.com", "secret")
	require.Error(t, err)
	assert.Equal(t, "user already exists", f.store.Auth.View().Message)
}

func TestAuth_LogoutClearsEverything(t *testing.T) {
	f := newStoreFixture(t)
	f.login(t)

	require.NoError(t, f.store.Auth.Logout())

	assert.False(t, f.store.LoggedIn())
	assert.Equal(t, Idle, f.store.Auth.View().Phase)
	_, ok := f.sessions.Load()
	assert.False(t, ok)

	// Requests after logout carry no token and are rejected.
	err := f.store.Tickets.Fetch(context.Background())
	require.Error(t, err)
}

func TestTickets_CreateAppendsToList(t *testing.T) {
	f := newStoreFixture(t)
	f.login(t)
	ctx := context.Background()

	require.NoError(t, f.store.Tickets.Fetch(ctx))
	assert.Empty(t, f.store.Tickets.List().Payload)

	ticket, err := f.store.Tickets.Create(ctx, "iPhone", "battery drains fast")
	require.NoError(t, err)
	assert.Equal(t, types.TicketStatusNew, ticket.Status)

	list := f.store.Tickets.List()
	require.Len(t, list.Payload, 1)
	assert.Equal(t, ticket.ID, list.Payload[0].ID)
}

func TestTickets_CloseUpdatesDetailAndList(t *testing.T) {
	f := newStoreFixture(t)
	f.login(t)
	ctx := context.Background()

	ticket, err := f.store.Tickets.Create(ctx, "iMac", "dead pixel")
	require.NoError(t, err)
	require.NoError(t, f.store.Tickets.FetchOne(ctx, ticket.ID))

	require.NoError(t, f.store.Tickets.Close(ctx, ticket.ID))

	detail := f.store.Tickets.Detail()
	assert.Equal(t, Fulfilled, detail.Phase)
	assert.Equal(t, types.TicketStatusClosed, detail.Payload.Status)

	list := f.store.Tickets.List()
	require.Len(t, list.Payload, 1)
	assert.Equal(t, types.TicketStatusClosed, list.Payload[0].Status,
		"list entry must agree with the detail view after close")
}

func TestTickets_FetchOneKeepsStaleDetailWhileLoading(t *testing.T) {
	f := newStoreFixture(t)
	f.login(t)
	ctx := context.Background()

	ticket, err := f.store.Tickets.Create(ctx, "iPad", "cracked screen")
	require.NoError(t, err)
	require.NoError(t, f.store.Tickets.FetchOne(ctx, ticket.ID))

	// A failed refresh keeps the stale payload visible alongside the error.
	err = f.store.Tickets.FetchOne(ctx, 999)
	require.Error(t, err)

	detail := f.store.Tickets.Detail()
	assert.Equal(t, Rejected, detail.Phase)
	assert.True(t, detail.HasPayload)
	assert.Equal(t, ticket.ID, detail.Payload.ID)
	assert.Equal(t, "ticket not found", detail.Message)
}

func TestNotes_FetchAndAdd(t *testing.T) {
	f := newStoreFixture(t)
	f.login(t)
	ctx := context.Background()

	ticket, err := f.store.Tickets.Create(ctx, "Macbook Pro", "keyboard stuck")
	require.NoError(t, err)

	require.NoError(t, f.store.Notes.Fetch(ctx, ticket.ID))
	assert.Empty(t, f.store.Notes.View().Payload)

	note, err := f.store.Notes.Add(ctx, ticket.ID, "cleaned with compressed air")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, note.TicketID)

	view := f.store.Notes.View()
	assert.Equal(t, Fulfilled, view.Phase)
	require.Len(t, view.Payload, 1)
	assert.Equal(t, "cleaned with compressed air", view.Payload[0].Text)
}
