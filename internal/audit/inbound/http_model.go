package inbound

import "time"

type AuditLogResponse struct {
	ID        int64          `json:"id,string"`
	Email     string         `json:"email"`
	Action    string         `json:"action"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

type AuditLogsResponse struct {
	Logs []AuditLogResponse `json:"logs"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r AuditLogsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}
