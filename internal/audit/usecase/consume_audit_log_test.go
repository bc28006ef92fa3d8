package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
)

func TestConsumeAuditLog(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)

		occurred := time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC)
		err := uc.ConsumeAuditLog(context.Background(), ConsumeAuditLogInput{
			Email:      "alice@example.com",
			Action:     "OTP_REQUESTED",
			IPAddress:  "203.0.113.7",
			UserAgent:  "go-test",
			Details:    map[string]any{"otp_expiry_seconds": int64(300)},
			OccurredAt: occurred,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(repo.logs) != 1 {
			t.Fatalf("expected 1 stored log, got %d", len(repo.logs))
		}
		log := repo.logs[0]
		if log.ID != 1 {
			t.Fatalf("expected generated id, got %d", log.ID)
		}
		if log.Action != entity.ActionOTPRequested {
			t.Fatalf("expected parsed action, got %s", log.Action)
		}
		if !log.CreatedAt.Equal(occurred) {
			t.Fatalf("expected event timestamp preserved, got %v", log.CreatedAt)
		}
		if log.Details["otp_expiry_seconds"] != int64(300) {
			t.Fatalf("unexpected details: %+v", log.Details)
		}
	})

	t.Run("UnknownActionIsDropped", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)

		err := uc.ConsumeAuditLog(context.Background(), ConsumeAuditLogInput{
			Email:  "alice@example.com",
			Action: "SOMETHING_ELSE",
		})
		if err != nil {
			t.Fatalf("expected unknown action to be dropped without error, got %v", err)
		}
		if len(repo.logs) != 0 {
			t.Fatalf("expected no stored log, got %d", len(repo.logs))
		}
	})

	t.Run("ZeroTimestampDefaultsToNow", func(t *testing.T) {
		uc, repo, clk := newTestUsecase(t)

		if err := uc.ConsumeAuditLog(context.Background(), ConsumeAuditLogInput{
			Action: "LOGOUT",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !repo.logs[0].CreatedAt.Equal(clk.Now()) {
			t.Fatalf("expected clock time, got %v", repo.logs[0].CreatedAt)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)

		err := uc.ConsumeAuditLog(context.Background(), ConsumeAuditLogInput{
			Email:  "not-an-email",
			Action: "LOGOUT",
		})
		if asGoError(t, err).Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input, got %v", asGoError(t, err).Code())
		}
		if len(repo.logs) != 0 {
			t.Fatalf("expected no stored log, got %d", len(repo.logs))
		}
	})

	t.Run("RepoError", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)
		repo.err = context.DeadlineExceeded

		err := uc.ConsumeAuditLog(context.Background(), ConsumeAuditLogInput{
			Action: "LOGIN",
		})
		if err == nil {
			t.Fatalf("expected error when the repo fails")
		}
	})
}
