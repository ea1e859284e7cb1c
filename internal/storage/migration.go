package storage

import "database/sql"

// Migrations for the sync engine's own tables, applied in order at startup.

type SyncSchema struct{}

func (m *SyncSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS emag`)
	return err
}

type OffersTable struct{}

func (m *OffersTable) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS emag.offers (
			account                TEXT        NOT NULL,
			sku                    TEXT        NOT NULL,
			part_number_key        TEXT,
			barcodes               TEXT[],
			name                   TEXT,
			price                  NUMERIC(12, 4),
			stock                  JSONB,
			status                 INT         NOT NULL DEFAULT 0,
			offer_validation       INT         NOT NULL DEFAULT 0,
			content_validation     INT         NOT NULL DEFAULT 0,
			translation_validation INT,
			sellable               BOOLEAN     NOT NULL DEFAULT FALSE,
			last_modified          TIMESTAMPTZ,
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (account, sku)
		)`)
	return err
}

type ConflictsTable struct{}

func (m *ConflictsTable) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS emag.conflicts (
			id          SERIAL      PRIMARY KEY,
			kind        TEXT        NOT NULL,
			key         TEXT        NOT NULL,
			records     JSONB       NOT NULL,
			detected_at TIMESTAMPTZ NOT NULL,
			resolution  TEXT        NOT NULL DEFAULT 'open'
		)`)
	return err
}

type WatermarksTable struct{}

func (m *WatermarksTable) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS emag.watermarks (
			account   TEXT        NOT NULL,
			resource  TEXT        NOT NULL,
			watermark TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (account, resource)
		)`)
	return err
}
