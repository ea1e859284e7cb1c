// Package resolver reconciles catalog records fetched from both seller
// accounts. Records that agree pass through; disagreements on attachment
// identity are never merged silently.
package resolver

import (
	"sort"
	"time"

	"emagsync_api/internal/core/models"
	"emagsync_api/pkg/logger"
)

type Resolver struct {
	log logger.Logger
	now func() time.Time
}

func New(log logger.Logger) *Resolver {
	return &Resolver{
		log: log.WithPrefix("[resolver]"),
		now: time.Now,
	}
}

// Resolve indexes the records of all accounts by attachment identity and
// returns the reconciled set plus every detected conflict. Conflicting
// records are excluded from the resolved set pending manual resolution.
func (r *Resolver) Resolve(byAccount map[models.AccountName][]models.CatalogRecord) ([]models.CatalogRecord, []models.Conflict) {
	var all []models.CatalogRecord
	for _, records := range byAccount {
		all = append(all, records...)
	}
	sortRecords(all)

	var conflicts []models.Conflict
	excluded := make(map[int]bool, len(all))

	// Same seller SKU attached to different part number keys across
	// accounts is seller error, surfaced and never merged.
	bySKU := groupBy(all, excluded, func(rec models.CatalogRecord) string {
		return rec.SKU
	})
	for sku, idx := range bySKU {
		keys := distinct(all, idx, func(rec models.CatalogRecord) string {
			return rec.PartNumberKey
		})
		if len(keys) > 1 {
			conflicts = append(conflicts, r.conflict(models.ConflictKeyMismatch, "sku:"+sku, all, idx))
			exclude(excluded, idx)
		}
	}

	// Different SKUs claiming the same attachment key is an attempted
	// duplicate attachment.
	byKey := groupBy(all, excluded, func(rec models.CatalogRecord) string {
		return rec.AttachmentKey()
	})
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var resolved []models.CatalogRecord
	for _, key := range keys {
		idx := byKey[key]
		skus := distinct(all, idx, func(rec models.CatalogRecord) string {
			return rec.SKU
		})
		if len(skus) > 1 {
			conflicts = append(conflicts, r.conflict(models.ConflictDuplicateAttachment, key, all, idx))
			exclude(excluded, idx)
			continue
		}

		if len(idx) == 1 {
			resolved = append(resolved, all[idx[0]])
			continue
		}

		// Same SKU, same key, both accounts. The common case is the same
		// listing refreshed: keep the newest copy when the elder is
		// otherwise identical, otherwise surface the disagreement.
		newest := all[idx[0]]
		identical := true
		for _, i := range idx[1:] {
			if !sameData(newest, all[i]) {
				identical = false
				break
			}
		}
		if identical {
			resolved = append(resolved, newest)
			continue
		}
		conflicts = append(conflicts, r.conflict(models.ConflictDataMismatch, key, all, idx))
		exclude(excluded, idx)
	}

	r.log.Infof("resolved %d of %d records, %d conflicts", len(resolved), len(all), len(conflicts))
	return resolved, conflicts
}

// sortRecords orders newest first, MAIN before FBE on equal watermarks, so
// resolution is deterministic regardless of fetch interleaving.
func sortRecords(records []models.CatalogRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].LastModified.Equal(records[j].LastModified) {
			return records[i].LastModified.After(records[j].LastModified)
		}
		return records[i].Account < records[j].Account
	})
}

// sameData compares everything except the watermark and the account.
func sameData(a, b models.CatalogRecord) bool {
	if a.SKU != b.SKU || a.PartNumberKey != b.PartNumberKey {
		return false
	}
	if normalizeName(a.Name) != normalizeName(b.Name) {
		return false
	}
	if a.Price != b.Price || a.Status != b.Status {
		return false
	}
	if a.TotalStock() != b.TotalStock() {
		return false
	}
	if a.OfferValidation != b.OfferValidation || a.ContentValidation != b.ContentValidation {
		return false
	}
	if !sameIntPtr(a.TranslationValidation, b.TranslationValidation) {
		return false
	}
	return sameBarcodes(a.Barcodes, b.Barcodes)
}

func sameIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sameBarcodes compares as sets; the accounts report barcodes in no
// particular order.
func sameBarcodes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, code := range a {
		seen[code]++
	}
	for _, code := range b {
		if seen[code] == 0 {
			return false
		}
		seen[code]--
	}
	return true
}

func (r *Resolver) conflict(kind models.ConflictKind, key string, all []models.CatalogRecord, idx []int) models.Conflict {
	refs := make([]models.ConflictRef, 0, len(idx))
	for _, i := range idx {
		refs = append(refs, models.ConflictRef{
			Account:       all[i].Account,
			SKU:           all[i].SKU,
			PartNumberKey: all[i].PartNumberKey,
		})
	}
	return models.Conflict{
		Kind:       kind,
		Key:        key,
		Records:    refs,
		DetectedAt: r.now(),
		Resolution: models.ResolutionOpen,
	}
}

func groupBy(all []models.CatalogRecord, excluded map[int]bool, key func(models.CatalogRecord) string) map[string][]int {
	groups := make(map[string][]int)
	for i, rec := range all {
		if excluded[i] {
			continue
		}
		k := key(rec)
		groups[k] = append(groups[k], i)
	}
	return groups
}

func distinct(all []models.CatalogRecord, idx []int, key func(models.CatalogRecord) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, i := range idx {
		k := key(all[i])
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		values = append(values, k)
	}
	return values
}

func exclude(excluded map[int]bool, idx []int) {
	for _, i := range idx {
		excluded[i] = true
	}
}
