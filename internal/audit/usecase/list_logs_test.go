package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
)

func TestListLogs(t *testing.T) {
	t.Run("RequiresAuth", func(t *testing.T) {
		uc, _, _ := newTestUsecase(t)

		_, err := uc.ListLogs(context.Background(), ListLogsInput{})
		if asGoError(t, err).Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)
		repo.listResult = []entity.AuditLog{{ID: 1}, {ID: 2}}
		repo.listTotal = 57

		out, err := uc.ListLogs(authedContext(), ListLogsInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Page != 1 || out.Size != 20 || out.Total != 57 {
			t.Fatalf("unexpected meta: %+v", out)
		}
		if len(out.Logs) != 2 {
			t.Fatalf("expected 2 logs, got %d", len(out.Logs))
		}
		if repo.lastFilter.Size != 20 || repo.lastFilter.Page != 0 {
			t.Fatalf("unexpected filter paging: %+v", repo.lastFilter)
		}
		if repo.lastFilter.IsFilterByEmail || repo.lastFilter.IsFilterByAction {
			t.Fatalf("expected no filters, got %+v", repo.lastFilter)
		}
	})

	t.Run("PageOffset", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)

		if _, err := uc.ListLogs(authedContext(), ListLogsInput{Size: 10, Page: 3}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.lastFilter.Size != 10 || repo.lastFilter.Page != 20 {
			t.Fatalf("expected offset 20, got %+v", repo.lastFilter)
		}
	})

	t.Run("Filters", func(t *testing.T) {
		uc, repo, _ := newTestUsecase(t)

		from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		if _, err := uc.ListLogs(authedContext(), ListLogsInput{
			Email:  "  Alice@Example.COM ",
			Action: "otp_failed",
			From:   from,
			To:     to,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f := repo.lastFilter
		if !f.IsFilterByEmail || f.Email != "alice@example.com" {
			t.Fatalf("expected normalized email filter, got %+v", f)
		}
		if !f.IsFilterByAction || f.Action != "OTP_FAILED" {
			t.Fatalf("expected upper-cased action filter, got %+v", f)
		}
		if !f.From.Equal(from) || !f.To.Equal(to) {
			t.Fatalf("expected time range preserved, got %+v", f)
		}
	})

	t.Run("UnknownAction", func(t *testing.T) {
		uc, _, _ := newTestUsecase(t)

		_, err := uc.ListLogs(authedContext(), ListLogsInput{Action: "NOT_A_THING"})
		if asGoError(t, err).Code() != goerror.CodeBadRequest {
			t.Fatalf("expected bad request, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		uc, _, _ := newTestUsecase(t)

		_, err := uc.ListLogs(authedContext(), ListLogsInput{Email: "nope"})
		if asGoError(t, err).Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input, got %v", asGoError(t, err).Code())
		}
	})
}
