package inbound

import (
	"time"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/Abbracx/tses-be/internal/audit/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/router"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes the audit trail read path.
type HTTPEndpoint struct {
	uc uc
}

// ListLogs returns audit records with optional filters.
// @Summary List audit logs
// @Description Returns a paginated list of audit records, newest first, with optional email, action and time range filters.
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param email query string false "Filter by email"
// @Param action query string false "Filter by action (OTP_REQUESTED|OTP_VERIFIED|OTP_FAILED|OTP_LOCKED|LOGIN|LOGOUT|USER_CREATE|USER_UPDATE)"
// @Param from query string false "Filter by created_at >= from (RFC3339)"
// @Param to query string false "Filter by created_at <= to (RFC3339)"
// @Param size query int false "Pagination size"
// @Param page query int false "Pagination page"
// @Success 200 {object} router.successResponse{data=AuditLogsResponse} "Audit log list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/logs [get]
func (h *HTTPEndpoint) ListLogs(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	from, err := r.GetQueryDate("from", time.RFC3339)
	if err != nil {
		return nil, err
	}

	to, err := r.GetQueryDate("to", time.RFC3339)
	if err != nil {
		return nil, err
	}

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, goerror.NewInvalidFormat("from must be before to")
	}

	resp, err := h.uc.ListLogs(r.Context(), usecase.ListLogsInput{
		Email:  r.GetQuery("email"),
		Action: r.GetQuery("action"),
		From:   from,
		To:     to,
		Size:   size,
		Page:   page,
	})
	if err != nil {
		return nil, err
	}

	logs := lo.Map(resp.Logs, func(item entity.AuditLog, _ int) AuditLogResponse {
		return AuditLogResponse{
			ID:        item.ID,
			Email:     item.Email,
			Action:    item.Action.String(),
			IPAddress: item.IPAddress,
			UserAgent: item.UserAgent,
			Details:   item.Details,
			CreatedAt: item.CreatedAt,
		}
	})

	return AuditLogsResponse{
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
		Logs:  logs,
	}, nil
}
