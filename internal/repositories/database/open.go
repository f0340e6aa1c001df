// Package database selects and opens the configured ledger store.
package database

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/credit_ledger/internal/platform/config"
	"github.com/SscSPs/credit_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/credit_ledger/internal/repositories/database/sqlite"
	pkgdb "github.com/SscSPs/credit_ledger/pkg/database"
)

// OpenRepositories connects to the store named by cfg.StoreDriver, applying
// migrations when configured, and returns its repositories. The caller owns
// the returned provider's Close.
func OpenRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.LockTimeout)
		if err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		logger.Info("SQLite ledger store opened", slog.String("path", cfg.SQLitePath))
		return sqlite.NewRepositoryProvider(store), nil

	case config.StoreDriverPostgres:
		dbPool, err := pkgdb.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, fmt.Errorf("initialize database pool: %w", err)
		}
		logger.Info("Database connection pool established.")

		if cfg.RunMigrations {
			logger.Info("Running database migrations...")
			if _, err := pkgdb.RunMigrations(cfg.DatabaseURL, logger); err != nil {
				dbPool.Close()
				return portsrepo.RepositoryProvider{}, err
			}
		}
		return pgsql.NewRepositoryProvider(dbPool, cfg.LockTimeout), nil
	}
	return portsrepo.RepositoryProvider{}, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
