package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

type LogoutInput struct {
	RefreshToken string `validate:"required"`
	IPAddress    string
	UserAgent    string
}

// Logout revokes the presented refresh token and records the sign-out.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.RevokeRefreshToken(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "logout with unknown or already revoked refresh token")
		return goerror.NewBusiness("invalid or expired refresh token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke refresh token", "error", err)
		return goerror.NewServer(err)
	}

	email := ""
	if claims := jwt.GetAuth(ctx); claims != nil {
		email = claims.UserEmail
	}
	s.emitAudit(ctx, AuditLogEvent{
		Email:     email,
		Action:    event.AuditActionLogout,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	})

	return nil
}
