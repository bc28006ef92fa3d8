package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/pkg/goerror"
)

func signIn(t *testing.T, f *fixture, email string) *VerifyOTPOutput {
	t.Helper()
	requestCode(t, f, email)

	out, err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		Email: email, OTP: "123456",
	})
	if err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}
	return out
}

func TestRefreshToken(t *testing.T) {
	t.Run("RotatesPair", func(t *testing.T) {
		f := newFixture(t)
		session := signIn(t, f, "alice@example.com")

		out, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AccessToken == "" || out.RefreshToken == "" {
			t.Fatalf("expected new token pair")
		}
		if out.RefreshToken == session.RefreshToken {
			t.Fatalf("expected a rotated refresh token")
		}

		// The old token is spent.
		_, err = f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized for rotated token, got %v", asGoError(t, err).Code())
		}

		// The new token works.
		if _, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: out.RefreshToken,
		}); err != nil {
			t.Fatalf("expected rotated token to be usable: %v", err)
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: "never-issued",
		})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		f := newFixture(t)
		session := signIn(t, f, "alice@example.com")

		f.clk.Advance(7*24*time.Hour + time.Second)

		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized for expired token, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{})
		if asGoError(t, err).Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input, got %v", asGoError(t, err).Code())
		}
	})
}
