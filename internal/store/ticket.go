package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/supportdesk/apiserver/types"
)

// TicketRepository handles persistence for tickets.
type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Ticket, error) {
	const query = `
		SELECT id, owner_id, product, description, status, created_at, updated_at
		FROM tickets
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []types.Ticket{}
	for rows.Next() {
		var ticket types.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.OwnerID,
			&ticket.Product,
			&ticket.Description,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id int) (types.Ticket, error) {
	const query = `
		SELECT id, owner_id, product, description, status, created_at, updated_at
		FROM tickets
		WHERE id = $1`
	var ticket types.Ticket
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.OwnerID,
		&ticket.Product,
		&ticket.Description,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Ticket{}, ErrNotFound
		}
		return types.Ticket{}, err
	}
	return ticket, nil
}

func (r *TicketRepository) Create(ctx context.Context, ticket types.Ticket) (types.Ticket, error) {
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	const query = `
		INSERT INTO tickets (owner_id, product, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		ticket.OwnerID,
		ticket.Product,
		ticket.Description,
		ticket.Status,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID); err != nil {
		return types.Ticket{}, err
	}
	return ticket, nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket types.Ticket) (types.Ticket, error) {
	ticket.UpdatedAt = time.Now()

	const query = `
		UPDATE tickets
		SET product = $1,
			description = $2,
			status = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		ticket.Product,
		ticket.Description,
		ticket.Status,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return types.Ticket{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Ticket{}, err
	}
	if affected == 0 {
		return types.Ticket{}, ErrNotFound
	}
	return ticket, nil
}

func (r *TicketRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM tickets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
