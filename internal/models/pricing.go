package models

import "time"

// PricingEntry is the persisted row of the pricing_table.
type PricingEntry struct {
	ActionType    string    `db:"action_type"`
	Unit          string    `db:"unit"`
	UnitSize      int64     `db:"unit_size"`
	BaseCost      int64     `db:"base_cost"`
	MinimumCharge int64     `db:"minimum_charge"`
	UpdatedAt     time.Time `db:"updated_at"`
}
