package usecase

import (
	"context"
	"log/slog"
)

// emitAudit publishes an audit event without blocking the request path.
// Delivery is best effort; failures are logged and dropped.
func (s *Usecase) emitAudit(ctx context.Context, msg AuditLogEvent) {
	msg.OccurredAt = s.clock.Now()

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishAuditLog(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish audit log", "action", msg.Action, "email", msg.Email, "error", err)
		}
		return nil
	})
}

// emitOTPEmail hands the code off to the notification pipeline without
// blocking the request path.
func (s *Usecase) emitOTPEmail(ctx context.Context, msg OTPEmailEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOTPEmail(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp email", "email", msg.Email, "error", err)
		}
		return nil
	})
}
