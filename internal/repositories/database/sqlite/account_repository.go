package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/models"
	"github.com/SscSPs/credit_ledger/internal/utils/mapping"
)

const accountColumns = `account_id, tier, main_balance, bonus_balance, monthly_refresh_amount, last_refresh_at, created_at, updated_at`

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		m                    models.Account
		lastRefresh          sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&m.AccountID, &m.Tier, &m.MainBalance, &m.BonusBalance, &m.MonthlyRefreshAmount,
		&lastRefresh, &createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, err
	}
	if lastRefresh.Valid {
		t := fromMicros(lastRefresh.Int64)
		m.LastRefreshAt = &t
	}
	m.CreatedAt = fromMicros(createdAt)
	m.UpdatedAt = fromMicros(updatedAt)
	return mapping.ToDomainAccount(m), nil
}

// CreateAccount inserts an account and its opening transactions atomically.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account, opening []domain.Transaction) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		m := mapping.ToModelAccount(account)
		_, err := tx.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.AccountID, m.Tier, m.MainBalance, m.BonusBalance, m.MonthlyRefreshAmount,
			nullMicros(m.LastRefreshAt), toMicros(m.CreatedAt), toMicros(m.UpdatedAt))
		if err != nil {
			mapped := mapSQLiteError(err, "failed to save account "+account.AccountID)
			if errors.Is(mapped, apperrors.ErrDuplicate) {
				return apperrors.NewAppError(apperrors.ErrDuplicate, "account "+account.AccountID+" already exists", err).
					WithField("account_id")
			}
			return mapped
		}

		for _, txn := range opening {
			if err := insertTransaction(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAccountByID retrieves an account by its ID.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := scanAccount(s.reader.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account", accountID)
		}
		return nil, mapSQLiteError(err, "failed to find account "+accountID)
	}
	return &account, nil
}

// ListAccountsDueForRefresh pages through accounts due for a refresh by id.
func (s *Store) ListAccountsDueForRefresh(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]string, error) {
	rows, err := s.reader.QueryContext(ctx, `
		SELECT account_id
		FROM accounts
		WHERE monthly_refresh_amount > 0
		  AND (last_refresh_at IS NULL OR last_refresh_at <= ?)
		  AND account_id > ?
		ORDER BY account_id
		LIMIT ?
	`, toMicros(cutoff), afterID, limit)
	if err != nil {
		return nil, mapSQLiteError(err, "failed to list accounts due for refresh")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapSQLiteError(err, "failed to scan account id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
