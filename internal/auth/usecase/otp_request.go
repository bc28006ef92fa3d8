package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

type RequestOTPInput struct {
	Email     string `validate:"required,email"`
	IPAddress string
	UserAgent string
}

type RequestOTPOutput struct {
	ExpiresIn int64
}

// RequestOTP issues a fresh code for the email, subject to the per-email and
// per-IP fixed windows. A new request always replaces the previous code.
func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) (*RequestOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	decision, err := s.checkRateLimits(ctx, in.Email, in.IPAddress)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rate limits", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !decision.allowed {
		retryAfter := int64(decision.retryAfter.Seconds())
		slog.WarnContext(ctx, "otp request rate limited",
			"email", in.Email, "scope", decision.scope.String(), "retry_after", retryAfter)

		s.emitAudit(ctx, AuditLogEvent{
			Email:     in.Email,
			Action:    event.AuditActionOTPRequested,
			IPAddress: in.IPAddress,
			UserAgent: in.UserAgent,
			Details: map[string]any{
				"rate_limited":        true,
				"scope":               decision.scope.String(),
				"retry_after_seconds": retryAfter,
			},
		})

		return nil, goerror.NewBusinessMeta(
			"Too many OTP requests. Please try again later.",
			goerror.CodeTooManyRequest,
			map[string]any{"retry_after": retryAfter},
		)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.StoreCode(ctx, in.Email, code, s.policy.OTPTTL); err != nil {
		slog.ErrorContext(ctx, "failed to store otp code", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.chargeRateLimits(ctx, in.Email, in.IPAddress); err != nil {
		slog.ErrorContext(ctx, "failed to charge rate windows", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	expirySeconds := int64(s.policy.OTPTTL.Seconds())
	s.emitOTPEmail(ctx, OTPEmailEvent{
		Email:         in.Email,
		Code:          code,
		ExpirySeconds: expirySeconds,
	})
	s.emitAudit(ctx, AuditLogEvent{
		Email:     in.Email,
		Action:    event.AuditActionOTPRequested,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Details:   map[string]any{"otp_expiry_seconds": expirySeconds},
	})

	return &RequestOTPOutput{ExpiresIn: expirySeconds}, nil
}
