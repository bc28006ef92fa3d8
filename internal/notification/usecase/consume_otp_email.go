package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Abbracx/tses-be/internal/pkg/idempotency"
	"github.com/Abbracx/tses-be/internal/pkg/mail"
)

const otpEmailSubject = "Your verification code"

const otpEmailBodyTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333333;">
  <h2>{{.company_name}}</h2>
  <p>Use this code to sign in. It expires in {{.expiry_minutes}} minutes.</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.code}}</p>
  <p>If you did not request this code, you can safely ignore this email.</p>
  <hr>
  <p style="font-size: 12px; color: #888888;">
    Need help? Contact {{.support_email}}.<br>
    &copy; {{.year}} {{.company_name}}.
  </p>
</body>
</html>`

type ConsumeOTPEmailInput struct {
	MessageID     string `validate:"required"`
	Email         string `validate:"required,email"`
	Code          string `validate:"required"`
	ExpirySeconds int64  `validate:"required,gt=0"`
}

// ConsumeOTPEmail delivers one sign-in code email. Delivery is guarded by an
// idempotency key derived from the broker message ID so redeliveries do not
// email the user twice.
func (s *Usecase) ConsumeOTPEmail(ctx context.Context, in ConsumeOTPEmailInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPEmail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["code"] = in.Code
	data["expiry_minutes"] = in.ExpirySeconds / 60

	body, err := s.renderTemplate("otp_email", otpEmailBodyTemplate, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email body", "email", in.Email, "error", err)
		return nil
	}

	err = s.idem.Exec(ctx, "notification:otp_email:"+in.MessageID, func(ctx context.Context) error {
		return s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  otpEmailSubject,
			HTMLBody: body,
		})
	}, idempotency.WithStateTTL(24*time.Hour))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyFailed):
		slog.WarnContext(ctx, "skipping otp email redelivery", "email", in.Email, "state", err)
		return nil
	default:
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "error", err)
		return err
	}
}
