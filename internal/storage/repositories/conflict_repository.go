package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"emagsync_api/internal/core/models"
)

type ConflictRepository struct {
	db *sql.DB
}

func NewConflictRepository(db *sql.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// RecordConflicts appends detected conflicts for external resolution.
func (r *ConflictRepository) RecordConflicts(ctx context.Context, conflicts []models.Conflict) error {
	for _, conflict := range conflicts {
		recordsJSON, err := json.Marshal(conflict.Records)
		if err != nil {
			return fmt.Errorf("marshalling conflict refs for %s: %w", conflict.Key, err)
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO emag.conflicts (kind, key, records, detected_at, resolution)
			VALUES ($1, $2, $3, $4, $5)`,
			string(conflict.Kind), conflict.Key, recordsJSON, conflict.DetectedAt, string(conflict.Resolution))
		if err != nil {
			return fmt.Errorf("inserting conflict for %s: %w", conflict.Key, err)
		}
	}
	return nil
}

// OpenConflicts lists conflicts still awaiting manual resolution.
func (r *ConflictRepository) OpenConflicts(ctx context.Context) ([]models.Conflict, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, key, records, detected_at, resolution
		FROM emag.conflicts
		WHERE resolution = 'open'
		ORDER BY detected_at`)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.Conflict
	for rows.Next() {
		var conflict models.Conflict
		var kind, resolution string
		var recordsJSON []byte
		if err := rows.Scan(&kind, &conflict.Key, &recordsJSON, &conflict.DetectedAt, &resolution); err != nil {
			return nil, fmt.Errorf("scanning conflict row: %w", err)
		}
		conflict.Kind = models.ConflictKind(kind)
		conflict.Resolution = models.ConflictResolution(resolution)
		if err := json.Unmarshal(recordsJSON, &conflict.Records); err != nil {
			return nil, fmt.Errorf("decoding conflict refs: %w", err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading conflict rows: %w", err)
	}
	return conflicts, nil
}
