package types

import "time"

// Ticket status values. Closing is a terminal write target: the server
// accepts status updates but never reopens a closed ticket implicitly.
const (
	TicketStatusNew    = "new"
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

// Products lists the supported products a ticket can be filed against.
var Products = []string{"iPhone", "Macbook Pro", "iMac", "iPad"}

// ValidProduct reports whether product is one of the supported products.
func ValidProduct(product string) bool {
	for _, p := range Products {
		if p == product {
			return true
		}
	}
	return false
}

// ValidTicketStatus reports whether status is a known ticket status.
func ValidTicketStatus(status string) bool {
	switch status {
	case TicketStatusNew, TicketStatusOpen, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket represents a support request owned by exactly one user.
type Ticket struct {
	// ID is the unique identifier of the ticket.
	ID int `json:"id" db:"id"`

	// OwnerID is the ID of the user who created the ticket. Only the
	// owner may read, update, or close it.
	OwnerID int `json:"owner_id" db:"owner_id"`

	// Product is the product the ticket concerns. Must be one of Products.
	Product string `json:"product" db:"product"`

	// Description is the user's description of the issue.
	Description string `json:"description" db:"description"`

	// Status is one of "new", "open", or "closed".
	Status string `json:"status" db:"status"`

	// CreatedAt is the timestamp when the ticket was filed.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the ticket.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
