// Package catalog loads the tier policy table and pricing seed from YAML.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TierOverride is one tier's settings as written in the catalog. Empty
// fields keep the built-in value.
type TierOverride struct {
	DiscountRate         string `yaml:"discount_rate"`
	RolloverPercent      string `yaml:"rollover_percent"`
	MonthlyRefreshAmount *int64 `yaml:"monthly_refresh_amount"`
	SignupBonus          *int64 `yaml:"signup_bonus"`
	DailyChargeLimit     *int64 `yaml:"daily_charge_limit"`
	RequestsPerMinute    *int64 `yaml:"requests_per_minute"`
}

// PricingRow is one pricing entry as written in the catalog.
type PricingRow struct {
	ActionType    string `yaml:"action_type"`
	Unit          string `yaml:"unit"`
	UnitSize      int64  `yaml:"unit_size"`
	BaseCost      int64  `yaml:"base_cost"`
	MinimumCharge int64  `yaml:"minimum_charge"`
}

// Catalog is the parsed catalog file.
type Catalog struct {
	Tiers   map[string]TierOverride `yaml:"tiers"`
	Pricing []PricingRow            `yaml:"pricing"`
}

// Load reads and parses the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &c, nil
}

// TierPolicies returns the built-in tier table with the catalog's overrides
// applied.
func (c *Catalog) TierPolicies() (domain.TierPolicies, error) {
	policies := domain.DefaultTierPolicies()
	if c == nil {
		return policies, nil
	}

	// Sorted so that errors are reported deterministically.
	names := make([]string, 0, len(c.Tiers))
	for name := range c.Tiers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		override := c.Tiers[name]
		tier := domain.Tier(strings.ToUpper(strings.TrimSpace(name)))
		if !tier.IsValid() {
			return nil, fmt.Errorf("catalog: unknown tier %q", name)
		}
		policy, err := mergeTier(policies[tier], override)
		if err != nil {
			return nil, fmt.Errorf("catalog: tier %s: %w", tier, err)
		}
		policies[tier] = policy
	}
	return policies, nil
}

func mergeTier(base domain.TierPolicy, o TierOverride) (domain.TierPolicy, error) {
	if o.DiscountRate != "" {
		rate, err := parseFraction("discount_rate", o.DiscountRate)
		if err != nil {
			return base, err
		}
		base.DiscountRate = rate
	}
	if o.RolloverPercent != "" {
		pct, err := parseFraction("rollover_percent", o.RolloverPercent)
		if err != nil {
			return base, err
		}
		base.RolloverPercent = pct
	}
	if o.MonthlyRefreshAmount != nil {
		base.MonthlyRefreshAmount = *o.MonthlyRefreshAmount
	}
	if o.SignupBonus != nil {
		base.SignupBonus = *o.SignupBonus
	}
	if o.DailyChargeLimit != nil {
		base.DailyChargeLimit = *o.DailyChargeLimit
	}
	if o.RequestsPerMinute != nil {
		base.RequestsPerMinute = *o.RequestsPerMinute
	}
	if base.MonthlyRefreshAmount < 0 || base.SignupBonus < 0 || base.DailyChargeLimit < 0 || base.RequestsPerMinute < 0 {
		return base, fmt.Errorf("amounts and limits must not be negative")
	}
	return base, nil
}

func parseFraction(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, raw, err)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be in [0, 1), got %s", field, raw)
	}
	return d, nil
}

// PricingEntries converts the pricing rows to domain entries.
func (c *Catalog) PricingEntries() []domain.PricingEntry {
	if c == nil {
		return nil
	}
	entries := make([]domain.PricingEntry, 0, len(c.Pricing))
	for _, row := range c.Pricing {
		entries = append(entries, domain.PricingEntry{
			ActionType:    domain.NormalizeActionType(row.ActionType),
			Unit:          row.Unit,
			UnitSize:      row.UnitSize,
			BaseCost:      row.BaseCost,
			MinimumCharge: row.MinimumCharge,
		})
	}
	return entries
}
