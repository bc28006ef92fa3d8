package inbound

import (
	"context"

	"github.com/Abbracx/tses-be/internal/audit/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/router"
)

type uc interface {
	ConsumeAuditLog(ctx context.Context, in usecase.ConsumeAuditLogInput) error
	ListLogs(ctx context.Context, in usecase.ListLogsInput) (*usecase.ListLogsOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/audit/logs", end.ListLogs)
}
