package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/credit_ledger/internal/models"
	"github.com/SscSPs/credit_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, tier, main_balance, bonus_balance, monthly_refresh_amount, last_refresh_at, created_at, updated_at`

// PgxAccountRepository implements portsrepo.AccountRepositoryFacade using pgx.
type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Tier,
		&m.MainBalance,
		&m.BonusBalance,
		&m.MonthlyRefreshAmount,
		&m.LastRefreshAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

// CreateAccount inserts an account and its opening transactions atomically.
func (r *PgxAccountRepository) CreateAccount(ctx context.Context, account domain.Account, opening []domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Ignored once committed

	m := mapping.ToModelAccount(account)
	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`,
		m.AccountID,
		m.Tier,
		m.MainBalance,
		m.BonusBalance,
		m.MonthlyRefreshAmount,
		m.LastRefreshAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		mapped := mapPgError(err, "failed to save account "+account.AccountID)
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
	return r.Commit(ctx, tx)
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1;`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account", accountID)
		}
		return nil, mapPgError(err, "failed to find account "+accountID)
	}
	return &account, nil
}

// ListAccountsDueForRefresh pages through accounts due for a refresh by id.
func (r *PgxAccountRepository) ListAccountsDueForRefresh(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT account_id
		FROM accounts
		WHERE monthly_refresh_amount > 0
		  AND (last_refresh_at IS NULL OR last_refresh_at <= $1)
		  AND account_id > $2
		ORDER BY account_id
		LIMIT $3;
	`, cutoff, afterID, limit)
	if err != nil {
		return nil, mapPgError(err, "failed to list accounts due for refresh")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapPgError(err, "failed to scan accounts due for refresh")
	}
	return ids, nil
}
