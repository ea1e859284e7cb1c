package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"emagsync_api/internal/core/models"
	"emagsync_api/internal/emag/client"
	"emagsync_api/internal/emag/client/pagination"
	"emagsync_api/pkg/logger"
)

// StreamResult is everything one (account, resource) pagination stream
// produced. Records and counters survive even when Err is set so a failed
// stream never discards progress.
type StreamResult struct {
	Records     []models.CatalogRecord
	NewOrderIDs []int64
	Pages       int
	Items       int
	Skipped     int
	MaxModified time.Time
	Cursor      string
	Err         error
}

// Fetcher produces one stream per (account, resource) pair. Abstracted so
// the orchestrator can be exercised without a marketplace.
type Fetcher interface {
	Accounts() []models.AccountName
	FetchStream(ctx context.Context, account models.AccountName, resource models.ResourceType,
		modifiedAfter *time.Time, startPage int, progress func(pages, items int)) StreamResult
	AcknowledgeOrders(ctx context.Context, account models.AccountName, orderIDs []int64) (int, error)
}

// Wire shapes of the marketplace read payloads. Unknown fields are dropped;
// required ones are validated when converted.
type offerPayload struct {
	ID                          int64               `json:"id"`
	PartNumber                  string              `json:"part_number"`
	PartNumberKey               string              `json:"part_number_key"`
	EAN                         []string            `json:"ean"`
	Name                        string              `json:"name"`
	SalePrice                   float64             `json:"sale_price"`
	Stock                       []models.StockEntry `json:"stock"`
	Status                      int                 `json:"status"`
	OfferValidationStatus       int                 `json:"offer_validation_status"`
	ValidationStatus            int                 `json:"validation_status"`
	TranslationValidationStatus *int                `json:"translation_validation_status"`
	LastModified                string              `json:"last_modified"`
}

type orderPayload struct {
	ID     int64 `json:"id"`
	Status int   `json:"status"`
}

const orderStatusNew = 1

// wireTimeLayout is the timestamp format the marketplace uses in payloads.
const wireTimeLayout = "2006-01-02 15:04:05"

func (p offerPayload) toRecord(account models.AccountName) (models.CatalogRecord, error) {
	if p.PartNumber == "" {
		return models.CatalogRecord{}, fmt.Errorf("offer %d has no seller sku", p.ID)
	}
	record := models.CatalogRecord{
		Account:               account,
		SKU:                   p.PartNumber,
		PartNumberKey:         p.PartNumberKey,
		Barcodes:              p.EAN,
		Name:                  p.Name,
		Price:                 p.SalePrice,
		Stock:                 p.Stock,
		Status:                models.OfferStatus(p.Status),
		OfferValidation:       p.OfferValidationStatus,
		ContentValidation:     p.ValidationStatus,
		TranslationValidation: p.TranslationValidationStatus,
	}
	if p.LastModified != "" {
		modified, err := parseWireTime(p.LastModified)
		if err != nil {
			return models.CatalogRecord{}, fmt.Errorf("offer %s: %w", p.PartNumber, err)
		}
		record.LastModified = modified
	}
	return record, nil
}

func parseWireTime(value string) (time.Time, error) {
	if t, err := time.Parse(wireTimeLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
	}
	return t, nil
}

// MarketplaceFetcher drives real pagination streams through the per-account
// clients.
type MarketplaceFetcher struct {
	clients  map[models.AccountName]client.Caller
	pageSize int
	log      logger.Logger
}

func NewMarketplaceFetcher(clients map[models.AccountName]client.Caller, pageSize int, log logger.Logger) *MarketplaceFetcher {
	return &MarketplaceFetcher{
		clients:  clients,
		pageSize: pageSize,
		log:      log.WithPrefix("[fetcher]"),
	}
}

func (f *MarketplaceFetcher) Accounts() []models.AccountName {
	accounts := make([]models.AccountName, 0, len(f.clients))
	for name := range f.clients {
		accounts = append(accounts, name)
	}
	return accounts
}

func (f *MarketplaceFetcher) FetchStream(ctx context.Context, account models.AccountName,
	resource models.ResourceType, modifiedAfter *time.Time, startPage int,
	progress func(pages, items int)) StreamResult {

	caller, ok := f.clients[account]
	if !ok {
		return StreamResult{Err: fmt.Errorf("no client configured for account %s", account)}
	}

	req := client.Request{Resource: string(resource), Action: "read"}
	if modifiedAfter != nil {
		req.Data = map[string]interface{}{
			"modified_after": modifiedAfter.UTC().Format(wireTimeLayout),
		}
	}

	var result StreamResult
	pager := pagination.NewPager(caller, f.pageSize, f.log)
	err := pager.Each(ctx, req, startPage, func(page pagination.Page) error {
		for _, raw := range page.Items {
			if err := f.consumeItem(account, resource, raw, &result); err != nil {
				result.Skipped++
				f.log.Warnf("%s %s page %d: skipping item: %v", account, resource, page.Number, err)
			}
		}
		result.Pages++
		result.Items += len(page.Items)
		result.Cursor = pagination.PageCursor(page.Number + 1)
		if progress != nil {
			progress(result.Pages, result.Items)
		}
		return nil
	})
	if err != nil {
		result.Err = err
		if partial, ok := err.(*pagination.PartialError); ok {
			result.Cursor = partial.Cursor
		}
	}
	return result
}

func (f *MarketplaceFetcher) consumeItem(account models.AccountName, resource models.ResourceType,
	raw json.RawMessage, result *StreamResult) error {

	switch resource {
	case models.ResourceProductOffer:
		var payload offerPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("decoding offer: %w", err)
		}
		record, err := payload.toRecord(account)
		if err != nil {
			return err
		}
		result.Records = append(result.Records, record)
		if record.LastModified.After(result.MaxModified) {
			result.MaxModified = record.LastModified
		}
	case models.ResourceOrder:
		var payload orderPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("decoding order: %w", err)
		}
		if payload.Status == orderStatusNew {
			result.NewOrderIDs = append(result.NewOrderIDs, payload.ID)
		}
	default:
		// AWBs and returns are counted only; they carry no catalog state.
	}
	return nil
}

// AcknowledgeOrders confirms receipt of newly fetched orders in bulk-capped
// batches. Returns the number acknowledged before any failure.
func (f *MarketplaceFetcher) AcknowledgeOrders(ctx context.Context, account models.AccountName, orderIDs []int64) (int, error) {
	caller, ok := f.clients[account]
	if !ok {
		return 0, fmt.Errorf("no client configured for account %s", account)
	}

	acked := 0
	for from := 0; from < len(orderIDs); from += client.MaxBulkEntities {
		to := from + client.MaxBulkEntities
		if to > len(orderIDs) {
			to = len(orderIDs)
		}
		_, err := caller.Call(ctx, client.Request{
			Resource: string(models.ResourceOrder),
			Action:   "acknowledge",
			Data:     orderIDs[from:to],
		})
		if err != nil {
			return acked, fmt.Errorf("acknowledging orders %d..%d: %w", from, to, err)
		}
		acked += to - from
	}
	return acked, nil
}
