package db

import (
	"context"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *DB) ListLogs(ctx context.Context, filter entity.LogListFilterData) (_ []entity.AuditLog, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer func() { s.endSpan(span, err) }()

	from := pgtype.Timestamptz{Time: filter.From, Valid: !filter.From.IsZero()}
	to := pgtype.Timestamptz{Time: filter.To, Valid: !filter.To.IsZero()}

	query := `
		SELECT id, user_id, email, action, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE (NOT $1::bool OR email = $2)
		  AND (NOT $3::bool OR action = $4)
		  AND (NOT $5::bool OR created_at >= $6)
		  AND (NOT $7::bool OR created_at <= $8)
		ORDER BY created_at DESC, id DESC
		LIMIT $9 OFFSET $10`

	rows, err := s.conn.Query(ctx, query,
		filter.IsFilterByEmail, filter.Email,
		filter.IsFilterByAction, filter.Action,
		!filter.From.IsZero(), from,
		!filter.To.IsZero(), to,
		filter.Size, filter.Page,
	)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.AuditLog, 0, filter.Size)
	for rows.Next() {
		var (
			item      entity.AuditLog
			userID    pgtype.Int8
			createdAt pgtype.Timestamptz
		)
		if err = rows.Scan(
			&item.ID,
			&userID,
			&item.Email,
			&item.Action,
			&item.IPAddress,
			&item.UserAgent,
			&item.Details,
			&createdAt,
		); err != nil {
			return nil, 0, s.mapError(err)
		}

		if userID.Valid {
			id := userID.Int64
			item.UserID = &id
		}
		if createdAt.Valid {
			item.CreatedAt = createdAt.Time
		}

		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	countQuery := `
		SELECT COUNT(*)
		FROM audit_logs
		WHERE (NOT $1::bool OR email = $2)
		  AND (NOT $3::bool OR action = $4)
		  AND (NOT $5::bool OR created_at >= $6)
		  AND (NOT $7::bool OR created_at <= $8)`

	var count int64
	err = s.conn.QueryRow(ctx, countQuery,
		filter.IsFilterByEmail, filter.Email,
		filter.IsFilterByAction, filter.Action,
		!filter.From.IsZero(), from,
		!filter.To.IsZero(), to,
	).Scan(&count)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return items, count, nil
}
