package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/credit_ledger/internal/models"
	"github.com/SscSPs/credit_ledger/internal/platform/metrics"
	"github.com/SscSPs/credit_ledger/internal/utils/mapping"
	"github.com/SscSPs/credit_ledger/internal/utils/pagination"
)

const transactionColumns = `transaction_id, account_id, amount, kind, status, balance_before, balance_after, description,
	action_type, metadata, idempotency_key, reference_id, related_transaction_id, created_at`

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		m         models.Transaction
		createdAt int64
	)
	err := row.Scan(&m.TransactionID, &m.AccountID, &m.Amount, &m.Kind, &m.Status, &m.BalanceBefore,
		&m.BalanceAfter, &m.Description, &m.ActionType, &m.Metadata, &m.IdempotencyKey, &m.ReferenceID,
		&m.RelatedTransactionID, &createdAt)
	if err != nil {
		return domain.Transaction{}, err
	}
	m.CreatedAt = fromMicros(createdAt)
	txn, err := mapping.ToDomainTransaction(m)
	if err != nil {
		return domain.Transaction{}, apperrors.NewStoreFailure("corrupt transaction row", err)
	}
	return txn, nil
}

func insertTransaction(ctx context.Context, q queryer, txn domain.Transaction) error {
	m, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrValidation, "transaction metadata is not encodable", err).WithField("metadata")
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.TransactionID, m.AccountID, m.Amount, m.Kind, m.Status, m.BalanceBefore, m.BalanceAfter,
		m.Description, m.ActionType, string(m.Metadata), m.IdempotencyKey, m.ReferenceID,
		m.RelatedTransactionID, toMicros(m.CreatedAt))
	if err != nil {
		return mapSQLiteError(err, "failed to insert transaction "+txn.TransactionID)
	}
	return nil
}

func findTransaction(ctx context.Context, q queryer, where string, args ...any) (*domain.Transaction, error) {
	txn, err := scanTransaction(q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, mapSQLiteError(err, "failed to load transaction")
	}
	return &txn, nil
}

func countCharges(ctx context.Context, q queryer, accountID string, actionTypes []string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE account_id = ? AND kind = 'CHARGE' AND created_at >= ?`
	args := []any{accountID, toMicros(since)}
	if len(actionTypes) > 0 {
		query += ` AND action_type IN (?` + strings.Repeat(", ?", len(actionTypes)-1) + `)`
		for _, a := range actionTypes {
			args = append(args, a)
		}
	}
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapSQLiteError(err, "failed to count charges")
	}
	return n, nil
}

// FindTransactionByID retrieves a transaction by id.
func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, s.reader, `transaction_id = ?`, transactionID)
}

// FindTransactionByIdempotencyKey returns the transaction recorded under key.
func (s *Store) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return findTransaction(ctx, s.reader, `idempotency_key = ?`, key)
}

// CountCharges counts CHARGE transactions created at or after since.
func (s *Store) CountCharges(ctx context.Context, accountID string, actionTypes []string, since time.Time) (int, error) {
	return countCharges(ctx, s.reader, accountID, actionTypes, since)
}

// SumAffectingAmounts sums the amounts of every non-FAILED transaction.
func (s *Store) SumAffectingAmounts(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.reader.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = ? AND status <> 'FAILED'
	`, accountID).Scan(&sum)
	if err != nil {
		return 0, mapSQLiteError(err, "failed to sum transactions for account "+accountID)
	}
	return sum, nil
}

// ListTransactions retrieves a page of an account's transactions newest first.
func (s *Store) ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	conds := []string{"account_id = ?"}
	args := []any{accountID}
	if filter.Kind != nil {
		conds = append(conds, "kind = ?")
		args = append(args, string(*filter.Kind))
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.ActionType != nil {
		conds = append(conds, "action_type = ?")
		args = append(args, *filter.ActionType)
	}
	if filter.CreatedFrom != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, toMicros(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, toMicros(*filter.CreatedTo))
	}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(apperrors.ErrValidation, "invalid nextToken", err).WithField("nextToken")
		}
		conds = append(conds, "(created_at < ? OR (created_at = ? AND transaction_id < ?))")
		args = append(args, toMicros(lastCreatedAt), toMicros(lastCreatedAt), lastID)
	}
	args = append(args, fetchLimit)

	rows, err := s.reader.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE `+
		strings.Join(conds, " AND ")+` ORDER BY created_at DESC, transaction_id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, nil, mapSQLiteError(err, "failed to query transactions for account "+accountID)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, fetchLimit)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, mapSQLiteError(err, "failed to scan transaction row")
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapSQLiteError(err, "error iterating transaction rows")
	}

	var nextTokenVal *string
	if len(transactions) > limit {
		last := transactions[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextTokenVal = &token
		transactions = transactions[:limit]
	}
	return transactions, nextTokenVal, nil
}

// WithAccountLock takes the writer connection, waiting at most the lock
// timeout, and runs fn inside an immediate transaction on it.
func (s *Store) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	started := time.Now()
	conn, err := s.writer(ctx)
	if err != nil {
		metrics.ObserveLockWait(metrics.ResultError, time.Since(started))
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		metrics.ObserveLockWait(metrics.ResultError, time.Since(started))
		return mapSQLiteError(err, "failed to begin transaction")
	}
	defer tx.Rollback() // no-op after commit

	account, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, accountID))
	if err != nil {
		metrics.ObserveLockWait(metrics.ResultError, time.Since(started))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("account", accountID)
		}
		return mapSQLiteError(err, "failed to load account "+accountID)
	}
	metrics.ObserveLockWait(metrics.ResultSuccess, time.Since(started))

	if err := fn(ctx, &sqliteLedgerTx{tx: tx, account: account}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapSQLiteError(err, "failed to commit transaction")
	}
	return nil
}

type sqliteLedgerTx struct {
	tx      *sql.Tx
	account domain.Account
}

var _ portsrepo.LedgerTx = (*sqliteLedgerTx)(nil)

func (t *sqliteLedgerTx) Account() domain.Account {
	return t.account
}

func (t *sqliteLedgerTx) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.tx, `idempotency_key = ?`, key)
}

func (t *sqliteLedgerTx) ReferenceExists(ctx context.Context, referenceID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = ? AND reference_id = ?)
	`, t.account.AccountID, referenceID).Scan(&exists)
	if err != nil {
		return false, mapSQLiteError(err, "failed to check reference id")
	}
	return exists, nil
}

func (t *sqliteLedgerTx) CountChargesSince(ctx context.Context, actionTypes []string, since time.Time) (int, error) {
	return countCharges(ctx, t.tx, t.account.AccountID, actionTypes, since)
}

func (t *sqliteLedgerTx) FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.tx, `transaction_id = ? AND account_id = ?`, transactionID, t.account.AccountID)
}

func (t *sqliteLedgerTx) MarkTransactionRefunded(ctx context.Context, transactionID string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE transactions SET status = 'REFUNDED'
		WHERE transaction_id = ? AND account_id = ? AND status = 'COMPLETED'
	`, transactionID, t.account.AccountID)
	if err != nil {
		return mapSQLiteError(err, "failed to mark transaction refunded")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapSQLiteError(err, "failed to read affected rows")
	}
	if n == 0 {
		return apperrors.NewAppError(apperrors.ErrAlreadyRefunded, "transaction is no longer refundable", nil).
			WithField("transaction_id")
	}
	return nil
}

func (t *sqliteLedgerTx) Apply(ctx context.Context, account domain.Account, txn domain.Transaction) error {
	if account.AccountID != t.account.AccountID || txn.AccountID != t.account.AccountID {
		return apperrors.NewStoreFailure("unit of work is bound to account "+t.account.AccountID, nil)
	}
	m := mapping.ToModelAccount(account)
	_, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET tier = ?, main_balance = ?, bonus_balance = ?, monthly_refresh_amount = ?,
		    last_refresh_at = ?, updated_at = ?
		WHERE account_id = ?
	`, m.Tier, m.MainBalance, m.BonusBalance, m.MonthlyRefreshAmount,
		nullMicros(m.LastRefreshAt), toMicros(m.UpdatedAt), m.AccountID)
	if err != nil {
		return mapSQLiteError(err, "failed to update account "+account.AccountID)
	}
	if err := insertTransaction(ctx, t.tx, txn); err != nil {
		return err
	}
	t.account = account
	return nil
}
