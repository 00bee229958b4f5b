package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: speed up the stale-report scan done by the archive sweep.
	`CREATE INDEX IF NOT EXISTS idx_missing_reports_created_at
	     ON missing_reports(created_at) WHERE found_item_id IS NULL`,
	// Migration 2: newest-first listings.
	`CREATE INDEX IF NOT EXISTS idx_claims_date_submitted ON claims(date_submitted)`,
	`CREATE INDEX IF NOT EXISTS idx_found_items_created_at ON found_items(created_at)`,
}

// Migrate ensures the schema and then runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
