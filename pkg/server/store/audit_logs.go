package store

import (
	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// AuditLogFilter narrows the audit log listing
type AuditLogFilter struct {
	Action       string
	ActorUserID  *uuid.UUID
	TargetUserID *uuid.UUID
	Limit        int
	Offset       int
}

// AuditLogsStore abstracts admin audit log queries
type AuditLogsStore interface {
	// ListAuditLogs returns entries newest first.
	ListAuditLogs(filter AuditLogFilter) ([]model.AdminAuditLog, error)
}
