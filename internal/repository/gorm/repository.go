package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"finconsole/internal/models"
	"finconsole/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertAuditEntry(ctx context.Context, item *models.ConsoleAuditEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAuditEntries(ctx context.Context, params repository.ListAuditTrailParams) ([]models.ConsoleAuditEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyAuditFilters(s.db.WithContext(ctx).Model(&models.ConsoleAuditEntry{}), params)
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.ConsoleAuditEntry
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, params repository.ListAuditTrailParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := applyAuditFilters(s.db.WithContext(ctx).Model(&models.ConsoleAuditEntry{}), params)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyAuditFilters(query *gorm.DB, params repository.ListAuditTrailParams) *gorm.DB {
	if params.Username != nil && strings.TrimSpace(*params.Username) != "" {
		query = query.Where("username = ?", strings.TrimSpace(*params.Username))
	}
	if params.Action != nil && strings.TrimSpace(*params.Action) != "" {
		query = query.Where("action = ?", strings.TrimSpace(*params.Action))
	}
	if params.Resource != nil && strings.TrimSpace(*params.Resource) != "" {
		query = query.Where("resource = ?", strings.TrimSpace(*params.Resource))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("created_at <= ?", *params.Until)
	}
	return query
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
