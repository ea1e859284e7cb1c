// Package storage implements the persistence collaborator of the sync
// engine on PostgreSQL.
package storage

import (
	"database/sql"
	"fmt"

	"emagsync_api/internal/storage/repositories"
	"emagsync_api/pkg/dbconnect/migration"
)

// SyncStore bundles the repositories behind the syncer.Store port.
type SyncStore struct {
	*repositories.CatalogRepository
	*repositories.ConflictRepository
	*repositories.WatermarkRepository
}

func NewSyncStore(db *sql.DB) *SyncStore {
	return &SyncStore{
		CatalogRepository:   repositories.NewCatalogRepository(db),
		ConflictRepository:  repositories.NewConflictRepository(db),
		WatermarkRepository: repositories.NewWatermarkRepository(db),
	}
}

// Migrate applies the engine's schema migrations in order.
func Migrate(db *sql.DB) error {
	migrations := []migration.MigrationInterface{
		&SyncSchema{},
		&OffersTable{},
		&ConflictsTable{},
		&WatermarksTable{},
	}
	for _, m := range migrations {
		if err := m.UpMigration(db); err != nil {
			return fmt.Errorf("applying migration %T: %w", m, err)
		}
	}
	return nil
}
