package pgsql

import (
	"time"

	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the PostgreSQL repositories around one pool.
// lockTimeout bounds how long a unit of work waits for an account row lock.
func NewRepositoryProvider(dbPool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(dbPool),
		LedgerRepo:  newPgxLedgerRepository(dbPool, lockTimeout),
		PricingRepo: newPgxPricingRepository(dbPool),
		Close:       dbPool.Close,
	}
}
