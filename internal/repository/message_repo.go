package repository

import (
	"context"
	"database/sql"

	"github.com/sparrowchat/sparrow/internal/domain"
)

// MessageRepo handles persistence of messages and their seen flags.
type MessageRepo struct{ DB *sql.DB }

func (r *MessageRepo) Save(ctx context.Context, msg *domain.Message) error {
	var text, image interface{}
	if msg.Text != "" {
		text = msg.Text
	}
	if msg.Image != "" {
		image = msg.Image
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, text, image, seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.SenderID, msg.ReceiverID, text, image, msg.Seen, msg.CreatedAt)

	return err
}

// FindConversation returns all messages between the two users, in either
// direction, ordered by creation time ascending.
func (r *MessageRepo) FindConversation(ctx context.Context, userA, userB string) ([]*domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, text, image, seen, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ExistsBetween reports whether any message exists between the pair,
// in either direction.
func (r *MessageRepo) ExistsBetween(ctx context.Context, userA, userB string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT TRUE FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		LIMIT 1
	`, userA, userB).Scan(&ok)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return ok, err
}

// MarkSeen flips seen to true on every unseen message from senderID to
// receiverID and returns how many rows changed. Calling it again with no
// new messages updates nothing: the flag only ever moves false -> true.
func (r *MessageRepo) MarkSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE messages SET seen = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND seen = FALSE
	`, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MessageRepo) FindLastMessage(ctx context.Context, userA, userB string) (*domain.Message, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, text, image, seen, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT 1
	`, userA, userB)

	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return msg, err
}

// CountUnseen counts messages from senderID to receiverID not yet seen.
func (r *MessageRepo) CountUnseen(ctx context.Context, senderID, receiverID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE sender_id = $1 AND receiver_id = $2 AND seen = FALSE
	`, senderID, receiverID).Scan(&n)
	return n, err
}

// PeerIDs returns every user the given user has exchanged at least one
// message with, ordered by the latest message in that pair, most recent
// first. This drives the sidebar ordering.
func (r *MessageRepo) PeerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT peer FROM (
			SELECT
				CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS peer,
				MAX(created_at) AS last_at
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
			GROUP BY peer
		) t
		ORDER BY last_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		peers = append(peers, p)
	}
	return peers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var msg domain.Message
	var text, image sql.NullString

	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &text, &image, &msg.Seen, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	msg.Text = text.String
	msg.Image = image.String
	return &msg, nil
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
