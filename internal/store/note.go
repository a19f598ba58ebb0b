package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/supportdesk/apiserver/types"
)

// NoteRepository handles persistence for ticket notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) ListByTicket(ctx context.Context, ticketID int) ([]types.Note, error) {
	const query = `
		SELECT id, ticket_id, author_id, text, is_staff, created_at
		FROM notes
		WHERE ticket_id = $1
		ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []types.Note{}
	for rows.Next() {
		var note types.Note
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.AuthorID,
			&note.Text,
			&note.IsStaff,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	note.CreatedAt = time.Now()

	const query = `
		INSERT INTO notes (ticket_id, author_id, text, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.TicketID,
		note.AuthorID,
		note.Text,
		note.IsStaff,
		note.CreatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}
