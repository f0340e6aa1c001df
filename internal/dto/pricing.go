package dto

import (
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// UpsertPricingRequest defines a pricing row. The action type comes from
// the path.
type UpsertPricingRequest struct {
	Unit          string `json:"unit" binding:"required,max=32"`
	UnitSize      int64  `json:"unitSize" binding:"required,min=1"`
	BaseCost      int64  `json:"baseCost" binding:"min=0"`
	MinimumCharge int64  `json:"minimumCharge" binding:"min=0"`
}

// ToDomain builds the pricing entry for actionType.
func (r UpsertPricingRequest) ToDomain(actionType string) domain.PricingEntry {
	return domain.PricingEntry{
		ActionType:    actionType,
		Unit:          r.Unit,
		UnitSize:      r.UnitSize,
		BaseCost:      r.BaseCost,
		MinimumCharge: r.MinimumCharge,
	}
}

// PricingResponse defines the data returned for a pricing row.
type PricingResponse struct {
	ActionType    string    `json:"actionType"`
	Unit          string    `json:"unit"`
	UnitSize      int64     `json:"unitSize"`
	BaseCost      int64     `json:"baseCost"`
	MinimumCharge int64     `json:"minimumCharge"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToPricingResponse converts a domain.PricingEntry.
func ToPricingResponse(p *domain.PricingEntry) PricingResponse {
	return PricingResponse{
		ActionType:    p.ActionType,
		Unit:          p.Unit,
		UnitSize:      p.UnitSize,
		BaseCost:      p.BaseCost,
		MinimumCharge: p.MinimumCharge,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToListPricingResponse converts pricing rows.
func ToListPricingResponse(entries []domain.PricingEntry) []PricingResponse {
	res := make([]PricingResponse, len(entries))
	for i := range entries {
		res[i] = ToPricingResponse(&entries[i])
	}
	return res
}
