package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/valueobject"
)

type ConsumeAuditLogInput struct {
	Email      string `validate:"omitempty,email"`
	Action     string `validate:"required"`
	IPAddress  string
	UserAgent  string
	Details    map[string]any
	OccurredAt time.Time
}

// ConsumeAuditLog appends one authentication event to the audit trail.
func (s *Usecase) ConsumeAuditLog(ctx context.Context, in ConsumeAuditLogInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAuditLog")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	action, ok := entity.ParseAction(in.Action)
	if !ok {
		slog.WarnContext(ctx, "skipping audit event with unknown action", "action", in.Action)
		return nil
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	err := s.repoDB.CreateLog(ctx, entity.AuditLog{
		ID:        s.uid.Generate(),
		Email:     in.Email,
		Action:    action,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Details:   valueobject.JSONMap(in.Details),
		CreatedAt: occurredAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create audit log", "action", in.Action, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
