// Package sqlite is the embedded single-file store. Every write goes through
// one connection, which gives the same per-account exclusion as the
// PostgreSQL row locks with a coarser grain. Reads use a separate WAL reader
// pool and never wait for a writer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	_ "modernc.org/sqlite"
)

// queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// maxReaders bounds the reader pool.
const maxReaders = 4

// Store implements the account, ledger and pricing repositories on SQLite.
type Store struct {
	db          *sql.DB // single writer connection
	reader      *sql.DB
	lockTimeout time.Duration
}

var (
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade  = (*Store)(nil)
	_ portsrepo.PricingRepositoryFacade = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies the
// schema. lockTimeout bounds how long a write waits for its turn.
func Open(ctx context.Context, path string, lockTimeout time.Duration) (*Store, error) {
	busy := max(lockTimeout.Milliseconds(), 1)
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate", path, busy))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, lockTimeout: lockTimeout}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	reader, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=query_only(1)", path, busy))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite reader %s: %w", path, err)
	}
	reader.SetMaxOpenConns(maxReaders)
	s.reader = reader
	return s, nil
}

// Close releases both database handles.
func (s *Store) Close() error {
	return errors.Join(s.reader.Close(), s.db.Close())
}

// writer takes the writer connection, waiting at most the lock timeout.
// The caller must close the returned connection.
func (s *Store) writer(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.lockTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
	}
	defer cancel()

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.NewAppError(apperrors.ErrLockTimeout, "store is busy, retry later", err)
		}
		return nil, mapSQLiteError(err, "failed to acquire connection")
	}
	return conn, nil
}

// inWriteTx runs fn in an immediate transaction on the writer connection.
func (s *Store) inWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	conn, err := s.writer(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteError(err, "failed to begin transaction")
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapSQLiteError(err, "failed to commit transaction")
	}
	return nil
}

// NewRepositoryProvider exposes the store through the repository ports.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: s,
		LedgerRepo:  s,
		PricingRepo: s,
		Close:       func() { _ = s.Close() },
	}
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}

// schema returns the schema statements. Each string is a single SQL
// statement. Timestamps are stored as Unix microseconds.
func schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_id             TEXT PRIMARY KEY,
			tier                   TEXT    NOT NULL CHECK (tier IN ('FREE', 'BASIC', 'PRO', 'ENTERPRISE')),
			main_balance           INTEGER NOT NULL DEFAULT 0 CHECK (main_balance >= 0),
			bonus_balance          INTEGER NOT NULL DEFAULT 0 CHECK (bonus_balance >= 0),
			monthly_refresh_amount INTEGER NOT NULL DEFAULT 0 CHECK (monthly_refresh_amount >= 0),
			last_refresh_at        INTEGER,
			created_at             INTEGER NOT NULL,
			updated_at             INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_refresh_due ON accounts(last_refresh_at, account_id)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id         TEXT PRIMARY KEY,
			account_id             TEXT    NOT NULL REFERENCES accounts(account_id),
			amount                 INTEGER NOT NULL,
			kind                   TEXT    NOT NULL,
			status                 TEXT    NOT NULL CHECK (status IN ('COMPLETED', 'REFUNDED', 'FAILED')),
			balance_before         INTEGER NOT NULL,
			balance_after          INTEGER NOT NULL,
			description            TEXT    NOT NULL DEFAULT '',
			action_type            TEXT,
			metadata               TEXT    NOT NULL DEFAULT '{}',
			idempotency_key        TEXT,
			reference_id           TEXT,
			related_transaction_id TEXT REFERENCES transactions(transaction_id),
			created_at             INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency_key
			ON transactions(idempotency_key) WHERE idempotency_key IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_account_reference
			ON transactions(account_id, reference_id) WHERE reference_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_refund_of
			ON transactions(related_transaction_id) WHERE kind = 'REFUND'`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_created
			ON transactions(account_id, created_at, transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_kind_created
			ON transactions(account_id, kind, created_at)`,

		`CREATE TABLE IF NOT EXISTS pricing_table (
			action_type    TEXT PRIMARY KEY,
			unit           TEXT    NOT NULL,
			unit_size      INTEGER NOT NULL CHECK (unit_size >= 1),
			base_cost      INTEGER NOT NULL CHECK (base_cost >= 0),
			minimum_charge INTEGER NOT NULL CHECK (minimum_charge >= 0),
			updated_at     INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO pricing_table (action_type, unit, unit_size, base_cost, minimum_charge, updated_at) VALUES
			('ANALYSIS_PER_500', 'per_500_words', 500, 10, 5, 0),
			('TEXT_ANALYSIS',    'per_500_words', 500, 10, 5, 0),
			('WORD_ANALYSIS',    'per_word',      1,   1,  10, 0),
			('UPLOAD_TXT',       'per_file',      1,   10, 10, 0),
			('UPLOAD_DOC',       'per_file',      1,   15, 15, 0),
			('EXPORT_CSV',       'per_export',    1,   20, 20, 0),
			('EXPORT_JSON',      'per_export',    1,   30, 30, 0),
			('API_CALL',         'per_request',   1,   5,  1,  0),
			('DETAILED_REPORT',  'per_report',    1,   25, 1,  0),
			('PLAGIARISM_CHECK', 'per_check',     1,   40, 1,  0)`,
	}
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMicros(*t), Valid: true}
}
