package connection

import (
	"fmt"

	"gorm.io/gorm"
)

var supportTables = []string{
	`CREATE TABLE IF NOT EXISTS counters (
		counter_type VARCHAR(50) PRIMARY KEY,
		last_value BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		request_id VARCHAR(100),
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(100) NOT NULL,
		event_type VARCHAR(100) NOT NULL,
		topic VARCHAR(200) NOT NULL,
		payload JSONB NOT NULL,
		status VARCHAR(20) NOT NULL,
		retry_count INT NOT NULL DEFAULT 0,
		error_message TEXT,
		next_retry_at TIMESTAMPTZ,
		processed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_status_created ON outbox_events (status, created_at)`,
}

// Migrate creates the gorm-managed tables (with their unique indexes) and the
// raw-SQL support tables used by the counter and outbox repositories.
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range supportTables {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create support table: %w", err)
		}
	}
	return nil
}
