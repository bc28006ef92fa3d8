package event

import "time"

const AuditLogDestination string = "audit_log_events"
const AuditLogConsumerAudit string = "audit_log_events_audit"

// Audit actions shared between the publishing and consuming modules.
const (
	AuditActionLogin        = "LOGIN"
	AuditActionLogout       = "LOGOUT"
	AuditActionOTPRequested = "OTP_REQUESTED"
	AuditActionOTPVerified  = "OTP_VERIFIED"
	AuditActionOTPFailed    = "OTP_FAILED"
	AuditActionOTPLocked    = "OTP_LOCKED"
	AuditActionUserCreate   = "USER_CREATE"
	AuditActionUserUpdate   = "USER_UPDATE"
)

type AuditLogMessage struct {
	Email      string         `json:"email"`
	Action     string         `json:"action"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
