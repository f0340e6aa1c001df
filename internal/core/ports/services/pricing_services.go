package services

import (
	"context"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// PricingSvcFacade manages the pricing table.
type PricingSvcFacade interface {
	ListPricing(ctx context.Context) ([]domain.PricingEntry, error)
	GetPricing(ctx context.Context, actionType string) (*domain.PricingEntry, error)
	UpsertPricing(ctx context.Context, entry domain.PricingEntry) (*domain.PricingEntry, error)
	// SeedPricing inserts entries, overwriting existing rows only when force is set.
	SeedPricing(ctx context.Context, entries []domain.PricingEntry, force bool) (int, error)
}
