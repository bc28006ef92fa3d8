package usecase

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

func requestCode(t *testing.T, f *fixture, email string) {
	t.Helper()
	if _, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
		Email:     email,
		IPAddress: "203.0.113.7",
	}); err != nil {
		t.Fatalf("failed to request otp: %v", err)
	}
}

func TestVerifyOTP(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		out, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:     "alice@example.com",
			OTP:       "123456",
			IPAddress: "203.0.113.7",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AccessToken == "" || out.RefreshToken == "" {
			t.Fatalf("expected token pair in response")
		}
		if !out.User.Created || !out.User.IsVerified {
			t.Fatalf("expected new verified user, got %+v", out.User)
		}
		if out.User.Username != "alice" || out.User.FirstName != "alice" || out.User.LastName != "User" {
			t.Fatalf("unexpected user fields: %+v", out.User)
		}

		f.flush()
		if !slices.Contains(f.messaging.auditActions(), event.AuditActionOTPVerified) {
			t.Fatalf("expected OTP_VERIFIED audit, got %v", f.messaging.auditActions())
		}
	})

	t.Run("CodeIsSingleUse", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		in := VerifyOTPInput{Email: "alice@example.com", OTP: "123456"}
		if _, err := f.uc.VerifyOTP(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := f.uc.VerifyOTP(context.Background(), in)
		if err == nil {
			t.Fatalf("expected error on second use of the code")
		}
		if asGoError(t, err).Code() != goerror.CodeBadRequest {
			t.Fatalf("expected bad request code, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("ExistingUserIsNotRecreated", func(t *testing.T) {
		f := newFixture(t)

		requestCode(t, f, "alice@example.com")
		if _, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "123456",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.clk.Advance(11 * time.Minute) // past the email window
		requestCode(t, f, "alice@example.com")

		out, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "123456",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.User.Created {
			t.Fatalf("expected existing user, got created=true")
		}
	})

	t.Run("WrongCodeCountsAttempt", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "000000",
		})
		if err == nil {
			t.Fatalf("expected error for wrong code")
		}

		gerr := asGoError(t, err)
		if gerr.Code() != goerror.CodeBadRequest {
			t.Fatalf("expected bad request code, got %v", gerr.Code())
		}
		if gerr.Meta()["attempts_remaining"] != int64(4) {
			t.Fatalf("expected 4 attempts remaining, got %v", gerr.Meta()["attempts_remaining"])
		}

		f.flush()
		audit, ok := f.messaging.lastAudit()
		if !ok || audit.Action != event.AuditActionOTPFailed {
			t.Fatalf("expected OTP_FAILED audit, got %+v", audit)
		}
	})

	t.Run("LockoutAfterMaxFailures", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		var lastErr error
		for i := 0; i < 5; i++ {
			_, lastErr = f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
				Email: "alice@example.com", OTP: "000000",
			})
			if lastErr == nil {
				t.Fatalf("attempt %d: expected error", i+1)
			}
		}

		gerr := asGoError(t, lastErr)
		if gerr.Code() != goerror.CodeLocked {
			t.Fatalf("expected locked code on 5th failure, got %v", gerr.Code())
		}
		if gerr.Meta()["unlock_eta"] != int64(900) {
			t.Fatalf("expected unlock_eta 900, got %v", gerr.Meta()["unlock_eta"])
		}

		// The lockout purges the stored code, so even the correct code is
		// rejected with the lockout error, not a mismatch.
		_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "123456",
		})
		if asGoError(t, err).Code() != goerror.CodeLocked {
			t.Fatalf("expected locked code while locked, got %v", asGoError(t, err).Code())
		}

		// After the lockout passes the purged code stays gone.
		f.clk.Advance(15*time.Minute + time.Second)
		_, err = f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "123456",
		})
		if asGoError(t, err).Code() != goerror.CodeBadRequest {
			t.Fatalf("expected bad request after lockout expiry, got %v", asGoError(t, err).Code())
		}

		f.flush()
		if !slices.Contains(f.messaging.auditActions(), event.AuditActionOTPLocked) {
			t.Fatalf("expected OTP_LOCKED audit, got %v", f.messaging.auditActions())
		}
	})

	t.Run("AttemptsRemainingCountsDown", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		for i := 1; i <= 4; i++ {
			_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
				Email: "alice@example.com", OTP: "000000",
			})
			gerr := asGoError(t, err)
			want := int64(5 - i)
			if gerr.Meta()["attempts_remaining"] != want {
				t.Fatalf("attempt %d: expected %d remaining, got %v", i, want, gerr.Meta()["attempts_remaining"])
			}
		}
	})

	t.Run("SuccessResetsFailures", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		for i := 0; i < 4; i++ {
			if _, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
				Email: "alice@example.com", OTP: "000000",
			}); err == nil {
				t.Fatalf("expected error for wrong code")
			}
		}

		if _, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "123456",
		}); err != nil {
			t.Fatalf("expected success on correct code: %v", err)
		}

		// A fresh code starts with a clean failure budget.
		f.clk.Advance(11 * time.Minute)
		requestCode(t, f, "alice@example.com")

		_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "000000",
		})
		if asGoError(t, err).Meta()["attempts_remaining"] != int64(4) {
			t.Fatalf("expected reset failure budget, got %v", asGoError(t, err).Meta())
		}
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		f.clk.Advance(5*time.Minute + time.Second)

		_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "123456",
		})
		if asGoError(t, err).Code() != goerror.CodeBadRequest {
			t.Fatalf("expected bad request for expired code, got %v", asGoError(t, err).Code())
		}

		// A missing code is not a failed attempt and leaves no audit trail.
		f.flush()
		if slices.Contains(f.messaging.auditActions(), event.AuditActionOTPFailed) {
			t.Fatalf("expected no OTP_FAILED audit, got %v", f.messaging.auditActions())
		}
	})

	t.Run("EmailIsCaseInsensitive", func(t *testing.T) {
		f := newFixture(t)
		requestCode(t, f, "alice@example.com")

		if _, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "ALICE@Example.com", OTP: "123456",
		}); err != nil {
			t.Fatalf("expected case insensitive match: %v", err)
		}
	})

	t.Run("ValidatesCodeShape", func(t *testing.T) {
		f := newFixture(t)

		for _, otp := range []string{"", "12345", "1234567", "12345a"} {
			_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
				Email: "alice@example.com", OTP: otp,
			})
			if err == nil {
				t.Fatalf("expected validation error for %q", otp)
			}
			if asGoError(t, err).Code() != goerror.CodeInvalidInput {
				t.Fatalf("expected invalid input for %q, got %v", otp, asGoError(t, err).Code())
			}
		}
	})
}

func TestVerifyOTP_LockoutWindowAnchoredToFirstFailure(t *testing.T) {
	f := newFixture(t)
	requestCode(t, f, "alice@example.com")

	// Two early failures, then wait almost the whole lockout window. The
	// failure counter expires relative to the first failure, so the next
	// mismatch starts a fresh budget.
	for i := 0; i < 2; i++ {
		if _, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email: "alice@example.com", OTP: "000000",
		}); err == nil {
			t.Fatalf("expected error for wrong code")
		}
	}

	f.clk.Advance(15*time.Minute + time.Second)

	// Re-issue because the code itself also expired.
	requestCode(t, f, "alice@example.com")

	_, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		Email: "alice@example.com", OTP: "000000",
	})
	if asGoError(t, err).Meta()["attempts_remaining"] != int64(4) {
		t.Fatalf("expected fresh failure budget, got %v", asGoError(t, err).Meta())
	}
}
