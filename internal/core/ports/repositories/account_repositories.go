package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccountsDueForRefresh returns ids of accounts with a recurring
	// allowance whose last refresh is at or before cutoff (or never happened),
	// ordered by id and starting strictly after afterID.
	ListAccountsDueForRefresh(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]string, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// CreateAccount inserts a new account together with its opening
	// transactions in one atomic unit. The account must already reflect the
	// effect of those transactions.
	CreateAccount(ctx context.Context, account domain.Account, opening []domain.Transaction) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
