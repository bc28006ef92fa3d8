package entity

import (
	"time"

	"github.com/Abbracx/tses-be/internal/pkg/valueobject"
)

// AuditLog is a single append-only record of an authentication event.
type AuditLog struct {
	ID        int64
	UserID    *int64
	Email     string
	Action    Action
	IPAddress string
	UserAgent string
	Details   valueobject.JSONMap
	CreatedAt time.Time
}

// LogListFilterData carries the resolved filters for the audit read path.
type LogListFilterData struct {
	Email  string
	Action string
	From   time.Time
	To     time.Time
	Size   int32
	Page   int32 // already converted to row offset

	IsFilterByEmail  bool
	IsFilterByAction bool
}
