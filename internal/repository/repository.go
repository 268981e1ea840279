package repository

import (
	"context"
	"time"

	"finconsole/internal/models"
)

type ListAuditTrailParams struct {
	Limit    int
	Offset   int
	Username *string
	Action   *string
	Resource *string
	Since    *time.Time
	Until    *time.Time
}

// Repository persists the console's own operator audit trail.
type Repository interface {
	InsertAuditEntry(ctx context.Context, item *models.ConsoleAuditEntry) error
	ListAuditEntries(ctx context.Context, params ListAuditTrailParams) ([]models.ConsoleAuditEntry, error)
	CountAuditEntries(ctx context.Context, params ListAuditTrailParams) (int64, error)
}
