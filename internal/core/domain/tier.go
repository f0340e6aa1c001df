package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is an account's subscription level.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierBasic      Tier = "BASIC"
	TierPro        Tier = "PRO"
	TierEnterprise Tier = "ENTERPRISE"
)

// AllTiers lists tiers from lowest to highest.
var AllTiers = []Tier{TierFree, TierBasic, TierPro, TierEnterprise}

// ParseTier normalizes s. Unknown values resolve to FREE.
func ParseTier(s string) Tier {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if t.IsValid() {
		return t
	}
	return TierFree
}

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierBasic, TierPro, TierEnterprise:
		return true
	}
	return false
}

// TierPolicy holds everything that varies by tier.
type TierPolicy struct {
	Tier                 Tier            `json:"tier"`
	DiscountRate         decimal.Decimal `json:"discountRate"`
	RolloverPercent      decimal.Decimal `json:"rolloverPercent"`
	MonthlyRefreshAmount int64           `json:"monthlyRefreshAmount"`
	SignupBonus          int64           `json:"signupBonus"`
	DailyChargeLimit     int64           `json:"dailyChargeLimit"`
	RequestsPerMinute    int64           `json:"requestsPerMinute"`
}

// TierPolicies is the single lookup table for tier-dependent behaviour.
type TierPolicies map[Tier]TierPolicy

// DefaultTierPolicies returns the built-in policy table.
func DefaultTierPolicies() TierPolicies {
	return TierPolicies{
		TierFree: {
			Tier:              TierFree,
			DiscountRate:      decimal.Zero,
			RolloverPercent:   decimal.Zero,
			SignupBonus:       50,
			DailyChargeLimit:  1000,
			RequestsPerMinute: 30,
		},
		TierBasic: {
			Tier:                 TierBasic,
			DiscountRate:         decimal.RequireFromString("0.10"),
			RolloverPercent:      decimal.RequireFromString("0.10"),
			MonthlyRefreshAmount: 300,
			SignupBonus:          100,
			DailyChargeLimit:     5000,
			RequestsPerMinute:    60,
		},
		TierPro: {
			Tier:                 TierPro,
			DiscountRate:         decimal.RequireFromString("0.30"),
			RolloverPercent:      decimal.RequireFromString("0.20"),
			MonthlyRefreshAmount: 1000,
			SignupBonus:          300,
			DailyChargeLimit:     20000,
			RequestsPerMinute:    120,
		},
		TierEnterprise: {
			Tier:                 TierEnterprise,
			DiscountRate:         decimal.RequireFromString("0.40"),
			RolloverPercent:      decimal.RequireFromString("0.50"),
			MonthlyRefreshAmount: 5000,
			SignupBonus:          500,
			DailyChargeLimit:     50000,
			RequestsPerMinute:    240,
		},
	}
}

// Policy returns the policy for t, falling back to FREE for unknown tiers.
func (p TierPolicies) Policy(t Tier) TierPolicy {
	if policy, ok := p[t]; ok {
		return policy
	}
	if policy, ok := p[TierFree]; ok {
		return policy
	}
	return TierPolicy{Tier: TierFree}
}

// Rollover computes the carried-over part of a main balance:
// min(floor(main * rollover_percent), monthly_refresh_amount).
func (p TierPolicy) Rollover(mainBalance, monthlyRefreshAmount int64) int64 {
	if mainBalance <= 0 {
		return 0
	}
	carried := decimal.NewFromInt(mainBalance).Mul(p.RolloverPercent).Floor().IntPart()
	return min(carried, monthlyRefreshAmount)
}
