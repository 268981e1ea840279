package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConsoleAuditEntry records an operator action issued through the console:
// layout saves, advisor setting changes, exports. Upstream page data is never
// persisted here; this trail covers only what the console itself did.
type ConsoleAuditEntry struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID  string         `gorm:"type:varchar(36);index" json:"request_id"`
	Username   string         `gorm:"type:varchar(100);not null;index" json:"username"`
	Role       string         `gorm:"type:varchar(40);not null" json:"role"`
	Action     string         `gorm:"type:varchar(60);not null;index" json:"action"`
	Resource   string         `gorm:"type:varchar(60);not null;index" json:"resource"`
	ResourceID string         `gorm:"type:varchar(100)" json:"resource_id"`
	Success    bool           `gorm:"not null;index" json:"success"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (ConsoleAuditEntry) TableName() string {
	return "console_audit_entries"
}
