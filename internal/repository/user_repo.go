package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/sparrowchat/sparrow/internal/domain"
)

// UserRepo reads user identities. Account creation and credentials live
// with the auth provider; this repo only serves the public view.
type UserRepo struct{ DB *sql.DB }

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, email, full_name, COALESCE(profile_pic, ''), created_at
		FROM users WHERE id = $1
	`, id)

	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.ProfilePic, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany returns the users for the given ids, preserving the input order.
// Ids with no matching row are skipped.
func (r *UserRepo) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, email, full_name, COALESCE(profile_pic, ''), created_at
		FROM users WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.User, len(ids))
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.ProfilePic, &u.CreatedAt); err != nil {
			return nil, err
		}
		byID[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// Search finds users by a case-insensitive substring of name or email.
func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, email, full_name, COALESCE(profile_pic, ''), created_at
		FROM users
		WHERE full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY full_name ASC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.ProfilePic, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
