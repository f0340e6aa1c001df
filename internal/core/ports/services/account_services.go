package services

import (
	"context"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetBalance returns main, bonus, refresh amount and last refresh time.
	GetBalance(ctx context.Context, accountID string) (*domain.Balance, error)

	// Reconcile compares the stored spendable total with the ledger sum.
	Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// OpenAccount creates an account and grants its tier's signup bonus.
	OpenAccount(ctx context.Context, accountID string, tier domain.Tier) (*domain.Balance, error)

	// ChangeTier moves an account to another tier, recording a PLAN_CHANGE.
	ChangeTier(ctx context.Context, accountID string, tier domain.Tier, reason string) (*domain.Transaction, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
