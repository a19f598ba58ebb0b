package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/supportdesk/apiserver/internal/services"
)

// NoteHandler provides HTTP handlers for ticket notes.
type NoteHandler struct {
	noteService *services.NoteService
}

// NewNoteHandler constructs a handler with the provided service.
func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := noteRequestIDs(w, r)
	if !ok {
		return
	}

	notes, err := h.noteService.ListForTicket(r.Context(), ticketID, userID)
	if err != nil {
		writeServiceError(w, err, "failed to list notes")
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// NoteRequest is the request body for adding a note.
type NoteRequest struct {
	Text string `json:"text"`
}

func (h *NoteHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := noteRequestIDs(w, r)
	if !ok {
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "please add some text")
		return
	}

	note, err := h.noteService.Add(r.Context(), ticketID, userID, req.Text)
	if err != nil {
		writeServiceError(w, err, "failed to add note")
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func noteRequestIDs(w http.ResponseWriter, r *http.Request) (userID, ticketID int, ok bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return 0, 0, false
	}

	ticketID, err = parseTicketID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return userID, ticketID, true
}
