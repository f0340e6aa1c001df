package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PricingEntry is one row of the pricing table.
type PricingEntry struct {
	ActionType    string    `json:"actionType"`
	Unit          string    `json:"unit"`
	UnitSize      int64     `json:"unitSize"`
	BaseCost      int64     `json:"baseCost"`
	MinimumCharge int64     `json:"minimumCharge"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NormalizeActionType trims and upper-cases an action type key.
func NormalizeActionType(actionType string) string {
	return strings.ToUpper(strings.TrimSpace(actionType))
}

// BurstMode selects how burst pricing modifies a cost.
type BurstMode string

const (
	BurstOff       BurstMode = "off"
	BurstSurcharge BurstMode = "surcharge"
	BurstDiscount  BurstMode = "discount"
)

// BurstPolicy configures the volume-based cost modifier. The modifier applies
// when an account already has Threshold or more charges for the listed
// actions inside the trailing Window.
type BurstPolicy struct {
	Mode        BurstMode
	Window      time.Duration
	Threshold   int
	Percent     decimal.Decimal
	ActionTypes []string
}

// AppliesTo reports whether actionType is subject to burst pricing.
func (b BurstPolicy) AppliesTo(actionType string) bool {
	if b.Mode == BurstOff || b.Mode == "" || b.Threshold <= 0 {
		return false
	}
	for _, a := range b.ActionTypes {
		if NormalizeActionType(a) == actionType {
			return true
		}
	}
	return false
}

// Rate returns the signed multiplier delta for an active modifier.
func (b BurstPolicy) Rate() decimal.Decimal {
	switch b.Mode {
	case BurstSurcharge:
		return b.Percent
	case BurstDiscount:
		return b.Percent.Neg()
	}
	return decimal.Zero
}

// CostBreakdown explains how a cost was derived.
type CostBreakdown struct {
	ActionType   string          `json:"actionType"`
	Quantity     int64           `json:"quantity"`
	Buckets      int64           `json:"buckets"`
	Raw          int64           `json:"raw"`
	AfterMinimum int64           `json:"afterMinimum"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	BurstRate    decimal.Decimal `json:"burstRate"`
	BurstApplied bool            `json:"burstApplied"`
	Cost         int64           `json:"cost"`
}
