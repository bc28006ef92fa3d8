package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Abbracx/tses-be/internal/auth/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

type VerifyOTPInput struct {
	Email     string `validate:"required,email"`
	OTP       string `validate:"required,len=6,number"`
	IPAddress string
	UserAgent string
}

type VerifyOTPOutput struct {
	AccessToken  string
	RefreshToken string
	User         entity.User
}

// VerifyOTP checks the submitted code against the stored one. A match
// consumes the code, materializes the user and issues a token pair; repeated
// mismatches lock the account for the lockout window.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	remaining, err := s.repoCache.LockRemaining(ctx, in.Email)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to check lockout", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err == nil {
		return nil, s.rejectLocked(ctx, in, int64(remaining.Seconds()), nil)
	}

	code, err := s.repoCache.GetCode(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		// A missing code carries no signal about the submitted value, so it
		// neither counts as a failed attempt nor leaves an audit record.
		return nil, goerror.NewBusiness("OTP expired or not found. Please request a new one.", goerror.CodeBadRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp code", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if code != in.OTP {
		return nil, s.rejectMismatch(ctx, in)
	}

	return s.acceptCode(ctx, in)
}

// rejectMismatch charges a failed attempt and escalates to a lockout when
// the failure budget is exhausted.
func (s *Usecase) rejectMismatch(ctx context.Context, in VerifyOTPInput) error {
	count, err := s.repoCache.IncrFailures(ctx, in.Email, s.policy.Lockout)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count otp failure", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if count >= s.policy.MaxFailed {
		if _, err := s.repoCache.Lock(ctx, in.Email, s.policy.Lockout); err != nil {
			slog.ErrorContext(ctx, "failed to set lockout", "email", in.Email, "error", err)
			return goerror.NewServer(err)
		}
		if err := s.repoCache.DeleteCode(ctx, in.Email); err != nil {
			slog.WarnContext(ctx, "failed to purge otp code on lockout", "email", in.Email, "error", err)
		}
		if err := s.repoCache.ClearFailures(ctx, in.Email); err != nil {
			slog.WarnContext(ctx, "failed to purge failure counter on lockout", "email", in.Email, "error", err)
		}

		return s.rejectLocked(ctx, in, int64(s.policy.Lockout.Seconds()), map[string]any{
			"reason": "max_attempts_exceeded",
		})
	}

	attemptsRemaining := s.policy.MaxFailed - count
	slog.WarnContext(ctx, "otp mismatch", "email", in.Email, "attempt", count, "remaining", attemptsRemaining)

	s.emitAudit(ctx, AuditLogEvent{
		Email:     in.Email,
		Action:    event.AuditActionOTPFailed,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Details: map[string]any{
			"attempt":   count,
			"remaining": attemptsRemaining,
		},
	})

	return goerror.NewBusinessMeta("Invalid OTP.", goerror.CodeBadRequest, map[string]any{
		"attempts_remaining": attemptsRemaining,
	})
}

func (s *Usecase) rejectLocked(ctx context.Context, in VerifyOTPInput, unlockETA int64, extra map[string]any) error {
	details := map[string]any{"unlock_eta_seconds": unlockETA}
	for k, v := range extra {
		details[k] = v
	}

	slog.WarnContext(ctx, "otp verification while locked", "email", in.Email, "unlock_eta", unlockETA)

	s.emitAudit(ctx, AuditLogEvent{
		Email:     in.Email,
		Action:    event.AuditActionOTPLocked,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Details:   details,
	})

	return goerror.NewBusinessMeta(
		"Account temporarily locked due to too many failed attempts.",
		goerror.CodeLocked,
		map[string]any{"unlock_eta": unlockETA},
	)
}

// acceptCode consumes the code, materializes the user and issues tokens.
func (s *Usecase) acceptCode(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	if err := s.repoCache.DeleteCode(ctx, in.Email); err != nil {
		slog.WarnContext(ctx, "failed to consume otp code", "email", in.Email, "error", err)
	}
	if err := s.repoCache.ClearFailures(ctx, in.Email); err != nil {
		slog.WarnContext(ctx, "failed to clear failure counter", "email", in.Email, "error", err)
	}

	localPart, _, _ := strings.Cut(in.Email, "@")
	user, err := s.repoDB.GetOrCreateUserByEmail(ctx, entity.User{
		ID:        s.uid.Generate(),
		Email:     in.Email,
		Username:  localPart,
		FirstName: localPart,
		LastName:  "User",
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get or create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	acToken, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refToken := s.oid.Generate()
	refTokenHash, err := s.hmac.Hash(refToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Token:     string(refTokenHash),
		ExpiresAt: s.clock.Now().Add(s.policy.RefreshTokenTTL),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.emitAudit(ctx, AuditLogEvent{
		Email:     in.Email,
		Action:    event.AuditActionOTPVerified,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Details:   map[string]any{"user_created": user.Created},
	})

	return &VerifyOTPOutput{
		AccessToken:  acToken,
		RefreshToken: refToken,
		User:         *user,
	}, nil
}
