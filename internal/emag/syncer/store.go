package syncer

import (
	"context"
	"time"

	"emagsync_api/internal/core/models"
)

// Store is the persistence collaborator. The engine only holds records
// transiently during a sync pass; durable ownership lives behind this port.
type Store interface {
	UpsertRecords(ctx context.Context, records []models.CatalogRecord) error
	RecordConflicts(ctx context.Context, conflicts []models.Conflict) error
	GetWatermark(ctx context.Context, account models.AccountName, resource models.ResourceType) (time.Time, bool, error)
	SetWatermark(ctx context.Context, account models.AccountName, resource models.ResourceType, watermark time.Time) error
}
