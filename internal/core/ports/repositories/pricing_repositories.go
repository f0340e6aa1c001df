package repositories

import (
	"context"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// PricingReader defines read operations for the pricing table
type PricingReader interface {
	// FindPricingByActionType returns the entry for a normalized action type.
	FindPricingByActionType(ctx context.Context, actionType string) (*domain.PricingEntry, error)

	// ListPricing returns every entry ordered by action type.
	ListPricing(ctx context.Context) ([]domain.PricingEntry, error)
}

// PricingWriter defines write operations for the pricing table
type PricingWriter interface {
	// UpsertPricing inserts or replaces an entry.
	UpsertPricing(ctx context.Context, entry domain.PricingEntry) error

	// InsertPricingIfMissing inserts an entry unless the action type exists.
	// It reports whether a row was written.
	InsertPricingIfMissing(ctx context.Context, entry domain.PricingEntry) (bool, error)
}

// PricingRepositoryFacade combines all pricing repository interfaces
type PricingRepositoryFacade interface {
	PricingReader
	PricingWriter
}
