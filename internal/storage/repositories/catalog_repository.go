package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"emagsync_api/internal/core/models"
)

const upsertBatchSize = 50
const offerColumns = 13

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// UpsertRecords writes the resolved record set in batches. Re-running a sync
// over the same records is idempotent: the (account, sku) key wins and every
// column takes the incoming value.
func (r *CatalogRepository) UpsertRecords(ctx context.Context, records []models.CatalogRecord) error {
	for from := 0; from < len(records); from += upsertBatchSize {
		to := from + upsertBatchSize
		if to > len(records) {
			to = len(records)
		}
		if err := r.upsertBatch(ctx, records[from:to]); err != nil {
			return fmt.Errorf("upserting records %d..%d: %w", from, to, err)
		}
	}
	return nil
}

func (r *CatalogRepository) upsertBatch(ctx context.Context, batch []models.CatalogRecord) error {
	valueStrings := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*offerColumns)

	for i, record := range batch {
		placeholders := make([]string, offerColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*offerColumns+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")

		stockJSON, err := json.Marshal(record.Stock)
		if err != nil {
			return fmt.Errorf("marshalling stock for %s: %w", record.SKU, err)
		}
		args = append(args,
			string(record.Account),
			record.SKU,
			nullString(record.PartNumberKey),
			pq.Array(record.Barcodes),
			record.Name,
			record.Price,
			stockJSON,
			int(record.Status),
			record.OfferValidation,
			record.ContentValidation,
			record.TranslationValidation,
			record.Sellable,
			nullTime(record.LastModified),
		)
	}

	query := `
		INSERT INTO emag.offers (account, sku, part_number_key, barcodes, name, price, stock,
			status, offer_validation, content_validation, translation_validation, sellable, last_modified)
		VALUES ` + strings.Join(valueStrings, ", ") + `
		ON CONFLICT (account, sku) DO UPDATE
		SET part_number_key = EXCLUDED.part_number_key,
			barcodes = EXCLUDED.barcodes,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			status = EXCLUDED.status,
			offer_validation = EXCLUDED.offer_validation,
			content_validation = EXCLUDED.content_validation,
			translation_validation = EXCLUDED.translation_validation,
			sellable = EXCLUDED.sellable,
			last_modified = EXCLUDED.last_modified,
			updated_at = NOW();
	`

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// GetBySKUs loads records for the given seller SKUs of one account.
func (r *CatalogRepository) GetBySKUs(ctx context.Context, account models.AccountName, skus []string) ([]models.CatalogRecord, error) {
	query := `
		SELECT account, sku, COALESCE(part_number_key, ''), barcodes, name, price, stock,
			status, offer_validation, content_validation, translation_validation, sellable, last_modified
		FROM emag.offers
		WHERE account = $1 AND sku = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, string(account), pq.Array(skus))
	if err != nil {
		return nil, fmt.Errorf("querying offers: %w", err)
	}
	defer rows.Close()

	var records []models.CatalogRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading offer rows: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (models.CatalogRecord, error) {
	var record models.CatalogRecord
	var account string
	var stockJSON []byte
	var lastModified sql.NullTime

	err := rows.Scan(&account, &record.SKU, &record.PartNumberKey, pq.Array(&record.Barcodes),
		&record.Name, &record.Price, &stockJSON, &record.Status, &record.OfferValidation,
		&record.ContentValidation, &record.TranslationValidation, &record.Sellable, &lastModified)
	if err != nil {
		return models.CatalogRecord{}, fmt.Errorf("scanning offer row: %w", err)
	}

	record.Account = models.AccountName(account)
	if lastModified.Valid {
		record.LastModified = lastModified.Time
	}
	if len(stockJSON) > 0 {
		if err := json.Unmarshal(stockJSON, &record.Stock); err != nil {
			return models.CatalogRecord{}, fmt.Errorf("decoding stock for %s: %w", record.SKU, err)
		}
	}
	return record, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
