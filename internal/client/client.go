// Package client is the Go API client for the supportdesk server. It attaches
// the bearer token to every protected request and normalizes every failure
// into a single message string plus a sentinel error for the status class.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/supportdesk/apiserver/types"
)

// Sentinel errors matching the server's error taxonomy.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// APIError is a failure response from the server, normalized to one message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap maps the status onto the matching sentinel so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// ErrorMessage reduces any failure, API or transport, to one user-visible
// string. This is the single normalization point for the whole client.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// AuthResult is the server's response to register and login.
type AuthResult struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Client talks to the supportdesk REST API.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New constructs a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the bearer token attached to subsequent requests.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Register creates an account and returns the issued token and user.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	var result AuthResult
	payload := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/users", payload, &result)
	return result, err
}

// Login verifies credentials and returns the issued token and user.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var result AuthResult
	payload := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/users/login", payload, &result)
	return result, err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var user types.User
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user)
	return user, err
}

// ListTickets returns the authenticated user's tickets.
func (c *Client) ListTickets(ctx context.Context) ([]types.Ticket, error) {
	var tickets []types.Ticket
	err := c.do(ctx, http.MethodGet, "/api/tickets", nil, &tickets)
	return tickets, err
}

// CreateTicket files a new ticket.
func (c *Client) CreateTicket(ctx context.Context, product, description string) (types.Ticket, error) {
	var ticket types.Ticket
	payload := map[string]string{"product": product, "description": description}
	err := c.do(ctx, http.MethodPost, "/api/tickets", payload, &ticket)
	return ticket, err
}

// GetTicket fetches one ticket by ID.
func (c *Client) GetTicket(ctx context.Context, id int) (types.Ticket, error) {
	var ticket types.Ticket
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d", id), nil, &ticket)
	return ticket, err
}

// CloseTicket marks a ticket closed and returns the updated ticket.
func (c *Client) CloseTicket(ctx context.Context, id int) (types.Ticket, error) {
	var ticket types.Ticket
	payload := map[string]string{"status": types.TicketStatusClosed}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tickets/%d", id), payload, &ticket)
	return ticket, err
}

// ListNotes returns the notes of a ticket.
func (c *Client) ListNotes(ctx context.Context, ticketID int) ([]types.Note, error) {
	var notes []types.Note
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d/notes", ticketID), nil, &notes)
	return notes, err
}

// AddNote appends a note to a ticket.
func (c *Client) AddNote(ctx context.Context, ticketID int, text string) (types.Note, error) {
	var note types.Note
	payload := map[string]string{"text": text}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tickets/%d/notes", ticketID), payload, &note)
	return note, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiErrorFromResponse(resp)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func apiErrorFromResponse(resp *http.Response) error {
	var parsed ErrorBody
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		message = strings.TrimSpace(parsed.Error)
	}
	if message == "" {
		message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

// ErrorBody is the server's error payload shape.
type ErrorBody struct {
	Error string `json:"error"`
}
