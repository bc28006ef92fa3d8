package usecase

import (
	"context"
	"slices"
	"testing"

	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

func TestLogout(t *testing.T) {
	t.Run("RevokesToken", func(t *testing.T) {
		f := newFixture(t)
		session := signIn(t, f, "alice@example.com")

		ctx := jwt.SetAuth(context.Background(), jwt.Claims{
			UserID:    session.User.ID,
			UserEmail: session.User.Email,
		})

		if err := f.uc.Logout(ctx, LogoutInput{
			RefreshToken: session.RefreshToken,
			IPAddress:    "203.0.113.7",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The revoked token can no longer be rotated.
		_, err := f.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized after logout, got %v", asGoError(t, err).Code())
		}

		f.flush()
		idx := slices.Index(f.messaging.auditActions(), event.AuditActionLogout)
		if idx < 0 {
			t.Fatalf("expected LOGOUT audit, got %v", f.messaging.auditActions())
		}
		f.messaging.mu.Lock()
		logoutEvent := f.messaging.audits[idx]
		f.messaging.mu.Unlock()
		if logoutEvent.Email != "alice@example.com" {
			t.Fatalf("expected claims email in audit, got %q", logoutEvent.Email)
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.Logout(context.Background(), LogoutInput{RefreshToken: "never-issued"})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("AlreadyRevoked", func(t *testing.T) {
		f := newFixture(t)
		session := signIn(t, f, "alice@example.com")

		if err := f.uc.Logout(context.Background(), LogoutInput{RefreshToken: session.RefreshToken}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := f.uc.Logout(context.Background(), LogoutInput{RefreshToken: session.RefreshToken})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized on second logout, got %v", asGoError(t, err).Code())
		}
	})
}
