package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"emagsync_api/config"
	"emagsync_api/internal/core/models"
)

func newTestClassifier() *Classifier {
	return NewClassifier(config.DefaultConfig().Availability)
}

func sellableRecord() models.CatalogRecord {
	return models.CatalogRecord{
		Account:           models.AccountMain,
		SKU:               "A1",
		PartNumberKey:     "PNK1",
		Price:             120,
		Stock:             []models.StockEntry{{WarehouseID: 1, Value: 5}},
		Status:            models.OfferStatusActive,
		OfferValidation:   models.OfferValidationSaleable,
		ContentValidation: models.ContentValidationApproved,
	}
}

func TestReferenceRecordIsSellable(t *testing.T) {
	assert.Equal(t, Sellable, newTestClassifier().Classify(sellableRecord()))
}

func TestZeroStockIsNotSellable(t *testing.T) {
	record := sellableRecord()
	record.Stock = []models.StockEntry{{WarehouseID: 1, Value: 0}}
	assert.Equal(t, NotSellable, newTestClassifier().Classify(record))
}

func TestStockInASingleWarehouseSuffices(t *testing.T) {
	record := sellableRecord()
	record.Stock = []models.StockEntry{
		{WarehouseID: 1, Value: 0},
		{WarehouseID: 2, Value: 3},
	}
	assert.Equal(t, Sellable, newTestClassifier().Classify(record))
}

func TestNegativeCorrectionDoesNotMaskWarehouseStock(t *testing.T) {
	record := sellableRecord()
	record.Stock = []models.StockEntry{
		{WarehouseID: 1, Value: 3},
		{WarehouseID: 2, Value: -3},
	}
	assert.Equal(t, Sellable, newTestClassifier().Classify(record))
}

func TestAllowSetCombinationsAreSellable(t *testing.T) {
	classifier := newTestClassifier()
	cfg := config.DefaultConfig().Availability

	for _, offer := range cfg.OfferValidationAllowed {
		for _, content := range cfg.ContentValidationAllowed {
			for _, translation := range cfg.TranslationValidationAllowed {
				record := sellableRecord()
				record.OfferValidation = offer
				record.ContentValidation = content
				tr := translation
				record.TranslationValidation = &tr
				assert.Equalf(t, Sellable, classifier.Classify(record),
					"offer=%d content=%d translation=%d", offer, content, translation)
			}
		}
	}
}

func TestSingleFieldOutsideAllowSetIsNotSellable(t *testing.T) {
	classifier := newTestClassifier()

	tests := []struct {
		name   string
		mutate func(*models.CatalogRecord)
	}{
		{"inactive offer", func(r *models.CatalogRecord) { r.Status = models.OfferStatusInactive }},
		{"end of life offer", func(r *models.CatalogRecord) { r.Status = models.OfferStatusEndOfLife }},
		{"invalid price", func(r *models.CatalogRecord) { r.OfferValidation = models.OfferValidationInvalidPrice }},
		{"draft content", func(r *models.CatalogRecord) { r.ContentValidation = models.ContentValidationDraft }},
		{"rejected content", func(r *models.CatalogRecord) { r.ContentValidation = models.ContentValidationRejected }},
		{"blocked content", func(r *models.CatalogRecord) { r.ContentValidation = models.ContentValidationBlocked }},
		{"unsuccessful translation", func(r *models.CatalogRecord) {
			tr := models.TranslationUnsuccessful
			r.TranslationValidation = &tr
		}},
		{"translation awaiting review", func(r *models.CatalogRecord) {
			tr := models.TranslationAwaitingReview
			r.TranslationValidation = &tr
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := sellableRecord()
			tt.mutate(&record)
			assert.Equal(t, NotSellable, classifier.Classify(record))
		})
	}
}

func TestPendingMinorUpdateContentIsSellable(t *testing.T) {
	record := sellableRecord()
	record.ContentValidation = models.ContentValidationPendingMinorUpdate
	assert.Equal(t, Sellable, newTestClassifier().Classify(record))
}

func TestUntranslatedRecordSkipsTranslationGate(t *testing.T) {
	record := sellableRecord()
	record.TranslationValidation = nil
	assert.Equal(t, Sellable, newTestClassifier().Classify(record))
}
