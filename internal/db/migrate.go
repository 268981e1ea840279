package db

import "finconsole/internal/models"

func AutoMigrate(conn *DB) error {
	if conn == nil || conn.Gorm == nil {
		return nil
	}
	return conn.Gorm.AutoMigrate(
		&models.ConsoleAuditEntry{},
	)
}
