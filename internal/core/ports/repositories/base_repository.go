package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// LedgerTx is the unit of work handed out while an account row is held
// exclusively. Every read and write through it belongs to one atomic store
// transaction: either all of it commits or none of it does.
type LedgerTx interface {
	// Account returns the locked account as of the last Apply.
	Account() domain.Account

	// FindTransactionByIdempotencyKey re-checks an idempotency key under the lock.
	FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)

	// ReferenceExists reports whether the locked account already used referenceID.
	ReferenceExists(ctx context.Context, referenceID string) (bool, error)

	// CountChargesSince counts the locked account's CHARGE transactions created
	// at or after since. An empty actionTypes matches every action.
	CountChargesSince(ctx context.Context, actionTypes []string, since time.Time) (int, error)

	// FindTransactionForUpdate loads one of the locked account's transactions
	// and locks it for a status change.
	FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// MarkTransactionRefunded flips a COMPLETED transaction to REFUNDED.
	MarkTransactionRefunded(ctx context.Context, transactionID string) error

	// Apply persists the new account state and appends txn.
	Apply(ctx context.Context, account domain.Account, txn domain.Transaction) error
}

// AccountLocker runs fn while holding an exclusive, row-scoped lock on one
// account. Acquisition waits at most the store's configured lock timeout and
// then fails with apperrors.ErrLockTimeout. If fn returns an error the unit
// is rolled back, otherwise it is committed.
type AccountLocker interface {
	WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, tx LedgerTx) error) error
}
