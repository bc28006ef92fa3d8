package db

import (
	"context"

	"github.com/Abbracx/tses-be/internal/audit/entity"
)

func (s *DB) CreateLog(ctx context.Context, log entity.AuditLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateLog")
	defer func() { s.endSpan(span, err) }()

	query := `
		INSERT INTO audit_logs (id, user_id, email, action, ip_address, user_agent, details, created_at)
		VALUES ($1, (SELECT id FROM users WHERE email = $2), $2, $3, $4, $5, $6, $7)`

	_, err = s.conn.Exec(ctx, query,
		log.ID,
		log.Email,
		log.Action.String(),
		log.IPAddress,
		log.UserAgent,
		log.Details,
		log.CreatedAt,
	)

	return s.mapError(err)
}
