package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/credit_ledger/internal/models"
	"github.com/SscSPs/credit_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pricingColumns = `action_type, unit, unit_size, base_cost, minimum_charge, updated_at`

type PgxPricingRepository struct {
	BaseRepository
}

func newPgxPricingRepository(pool *pgxpool.Pool) portsrepo.PricingRepositoryFacade {
	return &PgxPricingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PricingRepositoryFacade = (*PgxPricingRepository)(nil)

func scanPricing(row rowScanner) (domain.PricingEntry, error) {
	var m models.PricingEntry
	if err := row.Scan(&m.ActionType, &m.Unit, &m.UnitSize, &m.BaseCost, &m.MinimumCharge, &m.UpdatedAt); err != nil {
		return domain.PricingEntry{}, err
	}
	return mapping.ToDomainPricingEntry(m), nil
}

func (r *PgxPricingRepository) FindPricingByActionType(ctx context.Context, actionType string) (*domain.PricingEntry, error) {
	entry, err := scanPricing(r.Pool.QueryRow(ctx, `SELECT `+pricingColumns+` FROM pricing_table WHERE action_type = $1;`, actionType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("pricing", actionType)
		}
		return nil, mapPgError(err, "failed to find pricing for "+actionType)
	}
	return &entry, nil
}

func (r *PgxPricingRepository) ListPricing(ctx context.Context) ([]domain.PricingEntry, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+pricingColumns+` FROM pricing_table ORDER BY action_type;`)
	if err != nil {
		return nil, mapPgError(err, "failed to list pricing")
	}
	defer rows.Close()

	var entries []domain.PricingEntry
	for rows.Next() {
		entry, err := scanPricing(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan pricing row")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating pricing rows")
	}
	return entries, nil
}

func (r *PgxPricingRepository) UpsertPricing(ctx context.Context, entry domain.PricingEntry) error {
	m := mapping.ToModelPricingEntry(entry)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO pricing_table (`+pricingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (action_type) DO UPDATE
		SET unit = EXCLUDED.unit,
		    unit_size = EXCLUDED.unit_size,
		    base_cost = EXCLUDED.base_cost,
		    minimum_charge = EXCLUDED.minimum_charge,
		    updated_at = EXCLUDED.updated_at;
	`, m.ActionType, m.Unit, m.UnitSize, m.BaseCost, m.MinimumCharge, m.UpdatedAt)
	if err != nil {
		return mapPgError(err, "failed to upsert pricing for "+entry.ActionType)
	}
	return nil
}

func (r *PgxPricingRepository) InsertPricingIfMissing(ctx context.Context, entry domain.PricingEntry) (bool, error) {
	m := mapping.ToModelPricingEntry(entry)
	tag, err := r.Pool.Exec(ctx, `
		INSERT INTO pricing_table (`+pricingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (action_type) DO NOTHING;
	`, m.ActionType, m.Unit, m.UnitSize, m.BaseCost, m.MinimumCharge, m.UpdatedAt)
	if err != nil {
		return false, mapPgError(err, "failed to insert pricing for "+entry.ActionType)
	}
	return tag.RowsAffected() > 0, nil
}
