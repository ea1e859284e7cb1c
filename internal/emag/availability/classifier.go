// Package availability derives the sellable state of a catalog record from
// the marketplace status fields. The allow-sets are platform-mandated and
// injected as configuration; nothing here infers membership.
package availability

import (
	"emagsync_api/config"
	"emagsync_api/internal/core/models"
)

type State string

const (
	Sellable    State = "sellable"
	NotSellable State = "not_sellable"
)

// Classifier evaluates the fixed combination of marketplace status fields.
// Classify is pure: same record in, same state out, no side effects.
type Classifier struct {
	offerValidation       map[int]bool
	contentValidation     map[int]bool
	translationValidation map[int]bool
}

func NewClassifier(cfg config.AvailabilityConfig) *Classifier {
	return &Classifier{
		offerValidation:       toSet(cfg.OfferValidationAllowed),
		contentValidation:     toSet(cfg.ContentValidationAllowed),
		translationValidation: toSet(cfg.TranslationValidationAllowed),
	}
}

// Classify returns Sellable only when every gate passes: stock in at least
// one warehouse, an active offer, a saleable offer-validation state, an
// approved (or pending minor update) content state and, for auto-translated
// offers, a completed or still-published translation state.
func (c *Classifier) Classify(record models.CatalogRecord) State {
	if !record.HasStock() {
		return NotSellable
	}
	if record.Status != models.OfferStatusActive {
		return NotSellable
	}
	if !c.offerValidation[record.OfferValidation] {
		return NotSellable
	}
	if !c.contentValidation[record.ContentValidation] {
		return NotSellable
	}
	if record.TranslationValidation != nil && !c.translationValidation[*record.TranslationValidation] {
		return NotSellable
	}
	return Sellable
}

func toSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
