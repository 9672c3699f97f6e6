package repository

import (
	"context"
	"database/sql"
)

// RequestRepo handles the message_requests table: senders awaiting the
// owner's approval before a conversation may start.
type RequestRepo struct{ DB *sql.DB }

// Add records that requesterID wants to message ownerID. Idempotent:
// a duplicate request is a no-op, never a second row.
func (r *RequestRepo) Add(ctx context.Context, ownerID, requesterID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO message_requests (owner_id, requester_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		ownerID, requesterID)
	return err
}

// Remove resolves a pending request, whether by accept or by block.
func (r *RequestRepo) Remove(ctx context.Context, ownerID, requesterID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM message_requests WHERE owner_id = $1 AND requester_id = $2`,
		ownerID, requesterID)
	return err
}

// Exists checks whether requesterID has a pending request with ownerID.
func (r *RequestRepo) Exists(ctx context.Context, ownerID, requesterID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT TRUE FROM message_requests WHERE owner_id = $1 AND requester_id = $2`,
		ownerID, requesterID).Scan(&ok)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return ok, err
}

// List returns the requesters awaiting ownerID's approval, oldest first.
func (r *RequestRepo) List(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT requester_id FROM message_requests WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requesters []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		requesters = append(requesters, id)
	}
	return requesters, rows.Err()
}
