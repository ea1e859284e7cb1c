package migration

import "database/sql"

type MigrationInterface interface {
	UpMigration(db *sql.DB) error
}
