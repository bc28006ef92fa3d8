package db

import (
	"context"

	"github.com/Abbracx/tses-be/internal/auth/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/jackc/pgx/v5"
)

func (s *DB) CreateRefreshToken(ctx context.Context, in entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)`

	_, err = s.conn.Exec(ctx, query, in.ID, in.UserID, in.Token, in.ExpiresAt)
	err = s.mapError(err)
	return err
}

// GetRefreshToken looks up a refresh token row by its stored hash, joined
// with the owning user.
func (s *DB) GetRefreshToken(ctx context.Context, tokenHash string) (out *entity.RefreshTokenInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT rt.id, rt.revoked, rt.replaced_by_id, rt.expires_at,
		       u.id, u.email, u.username, u.is_verified
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.token = $1`

	var rt entity.RefreshTokenInfo
	err = s.conn.QueryRow(ctx, query, tokenHash).Scan(
		&rt.RefreshID, &rt.Revoked, &rt.ReplacedByID, &rt.ExpiresAt,
		&rt.UserID, &rt.UserEmail, &rt.UserUsername, &rt.UserIsVerified,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &rt, nil
}

// RotateRefreshToken revokes the old token and inserts its replacement in a
// single transaction. Rotating an already revoked token returns
// goerror.ErrNotFound.
func (s *DB) RotateRefreshToken(ctx context.Context, in entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	err = pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked = TRUE, replaced_by_id = $1
			WHERE id = $2 AND revoked = FALSE`, in.NewID, in.OldID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO refresh_tokens (id, user_id, token, expires_at)
			VALUES ($1, $2, $3, $4)`, in.NewID, in.UserID, in.NewToken, in.NewExpiresAt)
		return err
	})
	err = s.mapError(err)
	return err
}

// RevokeRefreshToken marks a refresh token as revoked by its stored hash.
func (s *DB) RevokeRefreshToken(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token = $1 AND revoked = FALSE`, tokenHash)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
