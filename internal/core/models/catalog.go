package models

import "time"

// OfferStatus is the coarse listing state reported by the marketplace.
type OfferStatus int

const (
	OfferStatusInactive  OfferStatus = 0
	OfferStatusActive    OfferStatus = 1
	OfferStatusEndOfLife OfferStatus = 2
)

// Validation status codes. The numeric values are assigned by the platform;
// the allow-sets deciding which of them count as sellable live in
// configuration, not here.
const (
	OfferValidationSaleable     = 1
	OfferValidationInvalidPrice = 2

	ContentValidationDraft              = 1
	ContentValidationRejected           = 8
	ContentValidationApproved           = 9
	ContentValidationBlocked            = 11
	ContentValidationPendingMinorUpdate = 12

	TranslationCompleted           = 3
	TranslationInProgressPublished = 4
	TranslationUnsuccessful        = 5
	TranslationAwaitingReview      = 6
)

// StockEntry is the available quantity in one warehouse.
type StockEntry struct {
	WarehouseID int `json:"warehouse_id"`
	Value       int `json:"value"`
}

// CatalogRecord is a product offer as observed from one account.
//
// PartNumberKey and Barcodes are mutually exclusive as the attachment
// identifier when creating a new attachment to an existing listing; a record
// may still carry stored barcodes for display.
type CatalogRecord struct {
	Account       AccountName
	SKU           string
	PartNumberKey string
	Barcodes      []string
	Name          string
	Price         float64
	Stock         []StockEntry
	Status        OfferStatus

	OfferValidation       int
	ContentValidation     int
	TranslationValidation *int // nil when the offer was never auto-translated

	LastModified time.Time

	// Sellable is derived by the availability classifier before persistence.
	Sellable bool
}

// HasStock reports whether at least one warehouse holds a positive quantity.
// Distinct from a positive TotalStock: negative corrections in one warehouse
// must not mask real stock in another.
func (r CatalogRecord) HasStock() bool {
	for _, s := range r.Stock {
		if s.Value > 0 {
			return true
		}
	}
	return false
}

// TotalStock sums the quantity across warehouses.
func (r CatalogRecord) TotalStock() int {
	total := 0
	for _, s := range r.Stock {
		total += s.Value
	}
	return total
}

// AttachmentKey returns the identity used for cross-account deduplication:
// part number key first, then the first barcode, then the seller SKU.
func (r CatalogRecord) AttachmentKey() string {
	if r.PartNumberKey != "" {
		return "pnk:" + r.PartNumberKey
	}
	if len(r.Barcodes) > 0 {
		return "ean:" + r.Barcodes[0]
	}
	return "sku:" + r.SKU
}
