package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"emagsync_api/internal/core/models"
)

type WatermarkRepository struct {
	db *sql.DB
}

func NewWatermarkRepository(db *sql.DB) *WatermarkRepository {
	return &WatermarkRepository{db: db}
}

func (r *WatermarkRepository) GetWatermark(ctx context.Context, account models.AccountName, resource models.ResourceType) (time.Time, bool, error) {
	var watermark time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT watermark FROM emag.watermarks WHERE account = $1 AND resource = $2`,
		string(account), string(resource)).Scan(&watermark)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading watermark: %w", err)
	}
	return watermark, true, nil
}

func (r *WatermarkRepository) SetWatermark(ctx context.Context, account models.AccountName, resource models.ResourceType, watermark time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO emag.watermarks (account, resource, watermark)
		VALUES ($1, $2, $3)
		ON CONFLICT (account, resource) DO UPDATE
		SET watermark = EXCLUDED.watermark`,
		string(account), string(resource), watermark)
	if err != nil {
		return fmt.Errorf("storing watermark: %w", err)
	}
	return nil
}
