package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emagsync_api/internal/core/models"
	"emagsync_api/pkg/logger"
)

func record(account models.AccountName, sku, pnk string, modified time.Time) models.CatalogRecord {
	return models.CatalogRecord{
		Account:       account,
		SKU:           sku,
		PartNumberKey: pnk,
		Name:          "Wireless Mouse",
		Price:         99.9,
		Stock:         []models.StockEntry{{WarehouseID: 1, Value: 5}},
		Status:        models.OfferStatusActive,
		LastModified:  modified,
	}
}

func TestSameKeyDifferentSKUsEmitsConflict(t *testing.T) {
	now := time.Now()
	input := map[models.AccountName][]models.CatalogRecord{
		models.AccountFBE:  {record(models.AccountFBE, "B2", "PNK2", now)},
		models.AccountMain: {record(models.AccountMain, "C3", "PNK2", now)},
	}

	resolved, conflicts := New(logger.NewNop()).Resolve(input)

	assert.Empty(t, resolved, "neither record may survive")
	require.Len(t, conflicts, 1)
	conflict := conflicts[0]
	assert.Equal(t, models.ConflictDuplicateAttachment, conflict.Kind)
	assert.Equal(t, "pnk:PNK2", conflict.Key)
	assert.Equal(t, models.ResolutionOpen, conflict.Resolution)

	skus := []string{conflict.Records[0].SKU, conflict.Records[1].SKU}
	assert.ElementsMatch(t, []string{"B2", "C3"}, skus)
}

func TestSameSKUDifferentKeysEmitsConflict(t *testing.T) {
	now := time.Now()
	input := map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {record(models.AccountMain, "A1", "PNK1", now)},
		models.AccountFBE:  {record(models.AccountFBE, "A1", "PNK9", now)},
	}

	resolved, conflicts := New(logger.NewNop()).Resolve(input)

	assert.Empty(t, resolved)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictKeyMismatch, conflicts[0].Kind)
	assert.Equal(t, "sku:A1", conflicts[0].Key)
}

func TestStrictlyNewerIdenticalRecordAutoMerges(t *testing.T) {
	elder := record(models.AccountMain, "A1", "PNK1", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	newer := record(models.AccountFBE, "A1", "PNK1", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	// Cosmetic name difference must not block the merge.
	newer.Name = "  wireless  MOUSE "

	resolved, conflicts := New(logger.NewNop()).Resolve(map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {elder},
		models.AccountFBE:  {newer},
	})

	assert.Empty(t, conflicts)
	require.Len(t, resolved, 1)
	assert.Equal(t, models.AccountFBE, resolved[0].Account)
	assert.Equal(t, newer.LastModified, resolved[0].LastModified)
}

func TestSameIdentityDisagreeingDataEmitsConflict(t *testing.T) {
	a := record(models.AccountMain, "A1", "PNK1", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	b := record(models.AccountFBE, "A1", "PNK1", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	b.Price = 49.9

	resolved, conflicts := New(logger.NewNop()).Resolve(map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {a},
		models.AccountFBE:  {b},
	})

	assert.Empty(t, resolved)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDataMismatch, conflicts[0].Kind)
}

func TestDisagreeingTranslationStateEmitsConflict(t *testing.T) {
	a := record(models.AccountMain, "A1", "PNK1", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	completed := models.TranslationCompleted
	a.TranslationValidation = &completed
	b := record(models.AccountFBE, "A1", "PNK1", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	unsuccessful := models.TranslationUnsuccessful
	b.TranslationValidation = &unsuccessful

	resolved, conflicts := New(logger.NewNop()).Resolve(map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {a},
		models.AccountFBE:  {b},
	})

	assert.Empty(t, resolved, "a translation disagreement must not auto-merge")
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDataMismatch, conflicts[0].Kind)
}

func TestDisagreeingBarcodesEmitConflict(t *testing.T) {
	a := record(models.AccountMain, "A1", "PNK1", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	a.Barcodes = []string{"5941234567890"}
	b := record(models.AccountFBE, "A1", "PNK1", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	b.Barcodes = []string{"5949999999999"}

	resolved, conflicts := New(logger.NewNop()).Resolve(map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {a},
		models.AccountFBE:  {b},
	})

	assert.Empty(t, resolved)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDataMismatch, conflicts[0].Kind)
}

func TestBarcodeOrderDoesNotBlockAutoMerge(t *testing.T) {
	a := record(models.AccountMain, "A1", "PNK1", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	a.Barcodes = []string{"5941234567890", "5949999999999"}
	b := record(models.AccountFBE, "A1", "PNK1", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	b.Barcodes = []string{"5949999999999", "5941234567890"}

	resolved, conflicts := New(logger.NewNop()).Resolve(map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {a},
		models.AccountFBE:  {b},
	})

	assert.Empty(t, conflicts)
	require.Len(t, resolved, 1)
	assert.Equal(t, models.AccountFBE, resolved[0].Account)
}

func TestSingleAccountRecordsPassThroughUnchanged(t *testing.T) {
	now := time.Now()
	input := map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {
			record(models.AccountMain, "A1", "PNK1", now),
			record(models.AccountMain, "A2", "", now),
		},
	}

	resolved, conflicts := New(logger.NewNop()).Resolve(input)

	assert.Empty(t, conflicts)
	assert.Len(t, resolved, 2)
}

func TestBarcodeFallbackKeyGroupsRecordsWithoutPNK(t *testing.T) {
	now := time.Now()
	a := record(models.AccountMain, "A1", "", now)
	a.Barcodes = []string{"5941234567890"}
	b := record(models.AccountFBE, "Z9", "", now)
	b.Barcodes = []string{"5941234567890"}

	resolved, conflicts := New(logger.NewNop()).Resolve(map[models.AccountName][]models.CatalogRecord{
		models.AccountMain: {a},
		models.AccountFBE:  {b},
	})

	assert.Empty(t, resolved)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDuplicateAttachment, conflicts[0].Kind)
	assert.Equal(t, "ean:5941234567890", conflicts[0].Key)
}
