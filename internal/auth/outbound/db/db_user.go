package db

import (
	"context"

	"github.com/Abbracx/tses-be/internal/auth/entity"
)

// GetOrCreateUserByEmail returns the user for email, inserting the row on
// first contact. Existing users are re-marked as verified; the Created flag
// distinguishes a fresh insert from an update.
func (s *DB) GetOrCreateUserByEmail(ctx context.Context, in entity.User) (out *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetOrCreateUserByEmail")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO users (id, email, username, first_name, last_name, is_verified)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (email) DO UPDATE
		SET is_verified = TRUE, updated_at = NOW()
		RETURNING id, email, username, first_name, last_name, is_verified, (xmax = 0) AS created`

	var u entity.User
	err = s.conn.QueryRow(ctx, query, in.ID, in.Email, in.Username, in.FirstName, in.LastName).
		Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.IsVerified, &u.Created)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &u, nil
}
