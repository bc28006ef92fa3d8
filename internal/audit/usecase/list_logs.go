package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
)

type ListLogsInput struct {
	Email  string `validate:"omitempty,email"`
	Action string
	From   time.Time
	To     time.Time
	Size   int32 `validate:"omitempty,gte=1,lte=100"`
	Page   int32 `validate:"omitempty,gte=1"`
}

type ListLogsOutput struct {
	Page  int32
	Size  int32
	Total int64
	Logs  []entity.AuditLog
}

// ListLogs returns audit records newest first with optional filters.
func (s *Usecase) ListLogs(ctx context.Context, in ListLogsInput) (*ListLogsOutput, error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Size <= 0 || in.Size > 100 {
		in.Size = 20 // default limit
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	action := ""
	if in.Action != "" {
		parsed, ok := entity.ParseAction(strings.ToUpper(strings.TrimSpace(in.Action)))
		if !ok {
			return nil, goerror.NewBusiness("unknown audit action filter", goerror.CodeBadRequest)
		}
		action = parsed.String()
	}

	filter := entity.LogListFilterData{
		Email:  in.Email,
		Action: action,
		From:   in.From,
		To:     in.To,
		Size:   in.Size,
		Page:   (max(in.Page, 1) - 1) * in.Size,
	}
	filter.IsFilterByEmail = filter.Email != ""
	filter.IsFilterByAction = filter.Action != ""

	logs, total, err := s.repoDB.ListLogs(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit logs", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListLogsOutput{
		Page:  max(in.Page, 1),
		Size:  in.Size,
		Total: total,
		Logs:  logs,
	}, nil
}
