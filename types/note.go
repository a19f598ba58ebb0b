package types

import "time"

// Note is a comment attached to a ticket. Notes inherit the access rules
// of their parent ticket.
type Note struct {
	// ID is the unique identifier of the note.
	ID int `json:"id" db:"id"`

	// TicketID is the ID of the ticket the note belongs to.
	TicketID int `json:"ticket_id" db:"ticket_id"`

	// AuthorID is the ID of the user who wrote the note.
	AuthorID int `json:"author_id" db:"author_id"`

	// Text is the note body.
	Text string `json:"text" db:"text"`

	// IsStaff marks notes written by support staff rather than the
	// ticket owner.
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// CreatedAt is the timestamp when the note was added.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
