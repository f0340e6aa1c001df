package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/credit_ledger/internal/models"
	"github.com/SscSPs/credit_ledger/internal/platform/metrics"
	"github.com/SscSPs/credit_ledger/internal/utils/mapping"
	"github.com/SscSPs/credit_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, account_id, amount, kind, status, balance_before, balance_after, description,
	action_type, metadata, idempotency_key, reference_id, related_transaction_id, created_at`

// PgxLedgerRepository holds the transaction log and hands out account-locked
// units of work.
type PgxLedgerRepository struct {
	BaseRepository
	lockTimeout time.Duration
}

// newPgxLedgerRepository creates a new ledger repository.
func newPgxLedgerRepository(pool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		lockTimeout:    lockTimeout,
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.AccountID,
		&m.Amount,
		&m.Kind,
		&m.Status,
		&m.BalanceBefore,
		&m.BalanceAfter,
		&m.Description,
		&m.ActionType,
		&m.Metadata,
		&m.IdempotencyKey,
		&m.ReferenceID,
		&m.RelatedTransactionID,
		&m.CreatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn, err := mapping.ToDomainTransaction(m)
	if err != nil {
		return domain.Transaction{}, apperrors.NewStoreFailure("corrupt transaction row", err)
	}
	return txn, nil
}

func insertTransaction(ctx context.Context, q querier, txn domain.Transaction) error {
	m, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrValidation, "transaction metadata is not encodable", err).WithField("metadata")
	}
	_, err = q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`,
		m.TransactionID,
		m.AccountID,
		m.Amount,
		m.Kind,
		m.Status,
		m.BalanceBefore,
		m.BalanceAfter,
		m.Description,
		m.ActionType,
		m.Metadata,
		m.IdempotencyKey,
		m.ReferenceID,
		m.RelatedTransactionID,
		m.CreatedAt,
	)
	if err != nil {
		return mapPgError(err, "failed to insert transaction "+txn.TransactionID)
	}
	return nil
}

func findTransaction(ctx context.Context, q querier, where string, args ...any) (*domain.Transaction, error) {
	txn, err := scanTransaction(q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, mapPgError(err, "failed to load transaction")
	}
	return &txn, nil
}

func countCharges(ctx context.Context, q querier, accountID string, actionTypes []string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE account_id = $1 AND kind = 'CHARGE' AND created_at >= $2`
	args := []any{accountID, since}
	if len(actionTypes) > 0 {
		query += ` AND action_type = ANY($3)`
		args = append(args, actionTypes)
	}
	var n int
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapPgError(err, "failed to count charges")
	}
	return n, nil
}

// FindTransactionByID retrieves a transaction by id.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, r.Pool, `transaction_id = $1;`, transactionID)
}

// FindTransactionByIdempotencyKey returns the transaction recorded under key.
func (r *PgxLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return findTransaction(ctx, r.Pool, `idempotency_key = $1;`, key)
}

// CountCharges counts CHARGE transactions created at or after since.
func (r *PgxLedgerRepository) CountCharges(ctx context.Context, accountID string, actionTypes []string, since time.Time) (int, error) {
	return countCharges(ctx, r.Pool, accountID, actionTypes, since)
}

// SumAffectingAmounts sums the amounts of every non-FAILED transaction.
func (r *PgxLedgerRepository) SumAffectingAmounts(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT
		FROM transactions
		WHERE account_id = $1 AND status <> 'FAILED';
	`, accountID).Scan(&sum)
	if err != nil {
		return 0, mapPgError(err, "failed to sum transactions for account "+accountID)
	}
	return sum, nil
}

// ListTransactions retrieves a page of an account's transactions newest first
// using token-based pagination.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	conds := []string{"account_id = $1"}
	args := []any{accountID}
	add := func(cond string, vals ...any) {
		placeholders := make([]any, len(vals))
		for i, v := range vals {
			args = append(args, v)
			placeholders[i] = "$" + strconv.Itoa(len(args))
		}
		conds = append(conds, fmt.Sprintf(cond, placeholders...))
	}

	if filter.Kind != nil {
		add("kind = %s", string(*filter.Kind))
	}
	if filter.Status != nil {
		add("status = %s", string(*filter.Status))
	}
	if filter.ActionType != nil {
		add("action_type = %s", *filter.ActionType)
	}
	if filter.CreatedFrom != nil {
		add("created_at >= %s", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add("created_at < %s", *filter.CreatedTo)
	}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(apperrors.ErrValidation, "invalid nextToken", decodeErr).WithField("nextToken")
		}
		// Tuple comparison is concise and efficient in Postgres
		add("(created_at, transaction_id) < (%s, %s)", lastCreatedAt, lastID)
	}

	args = append(args, fetchLimit)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, transaction_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to query transactions for account "+accountID)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, fetchLimit)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, mapPgError(err, "failed to scan transaction row for account "+accountID)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapPgError(err, "error iterating transaction rows for account "+accountID)
	}

	var nextTokenVal *string
	if len(transactions) > limit {
		// The token points to the last item included in this page.
		last := transactions[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextTokenVal = &token
		transactions = transactions[:limit]
	}
	return transactions, nextTokenVal, nil
}

// WithAccountLock runs fn inside a database transaction holding the
// account's row lock. lock_timeout bounds the wait; Postgres reports an
// exceeded wait as 55P03.
func (r *PgxLedgerRepository) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	started := time.Now()
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Ignored once committed

	if r.lockTimeout > 0 {
		timeout := strconv.FormatInt(r.lockTimeout.Milliseconds(), 10) + "ms"
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true);`, timeout); err != nil {
			return mapPgError(err, "failed to set lock timeout")
		}
	}

	account, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1 FOR UPDATE;`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.ObserveLockWait(metrics.ResultError, time.Since(started))
			return apperrors.NewNotFoundError("account", accountID)
		}
		mapped := mapPgError(err, "failed to lock account "+accountID)
		metrics.ObserveLockWait(metrics.ResultError, time.Since(started))
		return mapped
	}
	metrics.ObserveLockWait(metrics.ResultSuccess, time.Since(started))

	if err := fn(ctx, &pgxLedgerTx{tx: tx, account: account}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// pgxLedgerTx is the locked unit of work for one account.
type pgxLedgerTx struct {
	tx      pgx.Tx
	account domain.Account
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

func (t *pgxLedgerTx) Account() domain.Account {
	return t.account
}

func (t *pgxLedgerTx) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.tx, `idempotency_key = $1;`, key)
}

func (t *pgxLedgerTx) ReferenceExists(ctx context.Context, referenceID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = $1 AND reference_id = $2);
	`, t.account.AccountID, referenceID).Scan(&exists)
	if err != nil {
		return false, mapPgError(err, "failed to check reference id")
	}
	return exists, nil
}

func (t *pgxLedgerTx) CountChargesSince(ctx context.Context, actionTypes []string, since time.Time) (int, error) {
	return countCharges(ctx, t.tx, t.account.AccountID, actionTypes, since)
}

func (t *pgxLedgerTx) FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.tx, `transaction_id = $1 AND account_id = $2 FOR UPDATE;`, transactionID, t.account.AccountID)
}

func (t *pgxLedgerTx) MarkTransactionRefunded(ctx context.Context, transactionID string) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE transactions SET status = 'REFUNDED'
		WHERE transaction_id = $1 AND account_id = $2 AND status = 'COMPLETED';
	`, transactionID, t.account.AccountID)
	if err != nil {
		return mapPgError(err, "failed to mark transaction refunded")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(apperrors.ErrAlreadyRefunded, "transaction is no longer refundable", nil).
			WithField("transaction_id")
	}
	return nil
}

func (t *pgxLedgerTx) Apply(ctx context.Context, account domain.Account, txn domain.Transaction) error {
	if account.AccountID != t.account.AccountID || txn.AccountID != t.account.AccountID {
		return apperrors.NewStoreFailure("unit of work is bound to account "+t.account.AccountID, nil)
	}
	m := mapping.ToModelAccount(account)
	_, err := t.tx.Exec(ctx, `
		UPDATE accounts
		SET tier = $2, main_balance = $3, bonus_balance = $4, monthly_refresh_amount = $5,
		    last_refresh_at = $6, updated_at = $7
		WHERE account_id = $1;
	`,
		m.AccountID,
		m.Tier,
		m.MainBalance,
		m.BonusBalance,
		m.MonthlyRefreshAmount,
		m.LastRefreshAt,
		m.UpdatedAt,
	)
	if err != nil {
		return mapPgError(err, "failed to update account "+account.AccountID)
	}
	if err := insertTransaction(ctx, t.tx, txn); err != nil {
		return err
	}
	t.account = account
	return nil
}
