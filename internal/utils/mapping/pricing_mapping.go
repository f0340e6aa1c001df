package mapping

import (
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/models"
)

// ToModelPricingEntry converts a domain PricingEntry to a model PricingEntry
func ToModelPricingEntry(d domain.PricingEntry) models.PricingEntry {
	return models.PricingEntry{
		ActionType:    d.ActionType,
		Unit:          d.Unit,
		UnitSize:      d.UnitSize,
		BaseCost:      d.BaseCost,
		MinimumCharge: d.MinimumCharge,
		UpdatedAt:     d.UpdatedAt,
	}
}

// ToDomainPricingEntry converts a model PricingEntry to a domain PricingEntry
func ToDomainPricingEntry(m models.PricingEntry) domain.PricingEntry {
	return domain.PricingEntry{
		ActionType:    m.ActionType,
		Unit:          m.Unit,
		UnitSize:      m.UnitSize,
		BaseCost:      m.BaseCost,
		MinimumCharge: m.MinimumCharge,
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}
