package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/supportdesk/apiserver/internal/services"
	"github.com/supportdesk/apiserver/types"
)

const maxAttachmentMemory = 32 << 20

// TicketHandler provides HTTP handlers for tickets and their attachments.
type TicketHandler struct {
	ticketService *services.TicketService
}

// NewTicketHandler constructs a handler with the provided service.
func NewTicketHandler(ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// TicketRouter registers ticket, note, and attachment routes on the given
// router. All routes require authentication.
func TicketRouter(
	r chi.Router,
	ticketService *services.TicketService,
	noteService *services.NoteService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTicketHandler(ticketService)
	noteHandler := NewNoteHandler(noteService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListTickets)
	r.Post("/", handler.CreateTicket)
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", handler.GetTicket)
		r.Put("/", handler.UpdateTicket)
		r.Delete("/", handler.DeleteTicket)
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.ListNotes)
			r.Post("/", noteHandler.AddNote)
		})
		r.Route("/attachments", func(r chi.Router) {
			r.Post("/", handler.UploadAttachment)
			r.Get("/{name}", handler.GetAttachment)
			r.Delete("/{name}", handler.DeleteAttachment)
		})
	})
}

func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	tickets, err := h.ticketService.ListForOwner(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}

	writeJSON(w, http.StatusOK, tickets)
}

func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req TicketUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if !types.ValidProduct(req.Product) {
		writeError(w, http.StatusBadRequest, "please select a product")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "please enter a description of the issue")
		return
	}

	created, err := h.ticketService.Create(r.Context(), types.Ticket{
		OwnerID:     userID,
		Product:     req.Product,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create ticket")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetOwned(r.Context(), ticketID, userID)
	if err != nil {
		writeServiceError(w, err, "failed to fetch ticket")
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

func (h *TicketHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}

	var req TicketUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	current, err := h.ticketService.GetOwned(r.Context(), ticketID, userID)
	if err != nil {
		writeServiceError(w, err, "failed to fetch ticket")
		return
	}

	// Partial update: absent fields keep their current values.
	if req.Product != "" {
		if !types.ValidProduct(req.Product) {
			writeError(w, http.StatusBadRequest, "please select a product")
			return
		}
		current.Product = req.Product
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		current.Description = desc
	}
	if req.Status != "" {
		if !types.ValidTicketStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		current.Status = req.Status
	}

	updated, err := h.ticketService.UpdateOwned(r.Context(), current, userID)
	if err != nil {
		writeServiceError(w, err, "failed to update ticket")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TicketHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}

	if err := h.ticketService.DeleteOwned(r.Context(), ticketID, userID); err != nil {
		writeServiceError(w, err, "failed to delete ticket")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TicketHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	if !h.ticketService.AttachmentsEnabled() {
		writeError(w, http.StatusNotImplemented, "attachments are not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "attachment file is required")
		return
	}
	defer file.Close()

	name := path.Base(header.Filename)
	if name == "" || name == "." || name == "/" {
		writeError(w, http.StatusBadRequest, "invalid attachment name")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := h.ticketService.PutAttachment(r.Context(), ticketID, userID, name, file, header.Size, contentType); err != nil {
		writeServiceError(w, err, "failed to store attachment")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (h *TicketHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	if !h.ticketService.AttachmentsEnabled() {
		writeError(w, http.StatusNotImplemented, "attachments are not configured")
		return
	}

	name := path.Base(chi.URLParam(r, "name"))
	reader, err := h.ticketService.GetAttachment(r.Context(), ticketID, userID, name)
	if err != nil {
		writeServiceError(w, err, "failed to fetch attachment")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func (h *TicketHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ticketID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	if !h.ticketService.AttachmentsEnabled() {
		writeError(w, http.StatusNotImplemented, "attachments are not configured")
		return
	}

	name := path.Base(chi.URLParam(r, "name"))
	if err := h.ticketService.DeleteAttachment(r.Context(), ticketID, userID, name); err != nil {
		writeServiceError(w, err, "failed to delete attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requestIDs resolves the acting user and the ticket ID from the request,
// writing the failure response itself when either is missing.
func (h *TicketHandler) requestIDs(w http.ResponseWriter, r *http.Request) (userID, ticketID int, ok bool) {
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

// TicketUpsertRequest is the JSON payload for creating or updating a ticket.
type TicketUpsertRequest struct {
	Product     string `json:"product"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func parseTicketID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "ticketID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid ticket id")
	}
	return id, nil
}
