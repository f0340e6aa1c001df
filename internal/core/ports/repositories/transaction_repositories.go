package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// TransactionReader defines lock-free read operations on the ledger.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by id.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByIdempotencyKey returns the transaction recorded under key.
	FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)

	// ListTransactions returns an account's transactions newest first using
	// token-based pagination. It returns the page and a token for the next one.
	ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// CountCharges counts an account's CHARGE transactions created at or
	// after since. An empty actionTypes matches every action.
	CountCharges(ctx context.Context, accountID string, actionTypes []string, since time.Time) (int, error)

	// SumAffectingAmounts sums the amounts of every non-FAILED transaction.
	SumAffectingAmounts(ctx context.Context, accountID string) (int64, error)
}

// LedgerRepositoryFacade combines the lock-free reads with the locked unit of work.
type LedgerRepositoryFacade interface {
	TransactionReader
	AccountLocker
}
