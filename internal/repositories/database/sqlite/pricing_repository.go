package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/models"
	"github.com/SscSPs/credit_ledger/internal/utils/mapping"
)

const pricingColumns = `action_type, unit, unit_size, base_cost, minimum_charge, updated_at`

func scanPricing(row rowScanner) (domain.PricingEntry, error) {
	var (
		m         models.PricingEntry
		updatedAt int64
	)
	if err := row.Scan(&m.ActionType, &m.Unit, &m.UnitSize, &m.BaseCost, &m.MinimumCharge, &updatedAt); err != nil {
		return domain.PricingEntry{}, err
	}
	m.UpdatedAt = fromMicros(updatedAt)
	return mapping.ToDomainPricingEntry(m), nil
}

func (s *Store) FindPricingByActionType(ctx context.Context, actionType string) (*domain.PricingEntry, error) {
	entry, err := scanPricing(s.reader.QueryRowContext(ctx, `SELECT `+pricingColumns+` FROM pricing_table WHERE action_type = ?`, actionType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("pricing", actionType)
		}
		return nil, mapSQLiteError(err, "failed to find pricing for "+actionType)
	}
	return &entry, nil
}

func (s *Store) ListPricing(ctx context.Context) ([]domain.PricingEntry, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT `+pricingColumns+` FROM pricing_table ORDER BY action_type`)
	if err != nil {
		return nil, mapSQLiteError(err, "failed to list pricing")
	}
	defer rows.Close()

	var entries []domain.PricingEntry
	for rows.Next() {
		entry, err := scanPricing(rows)
		if err != nil {
			return nil, mapSQLiteError(err, "failed to scan pricing row")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) UpsertPricing(ctx context.Context, entry domain.PricingEntry) error {
	m := mapping.ToModelPricingEntry(entry)
	conn, err := s.writer(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `
		INSERT INTO pricing_table (`+pricingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(action_type) DO UPDATE SET
			unit           = excluded.unit,
			unit_size      = excluded.unit_size,
			base_cost      = excluded.base_cost,
			minimum_charge = excluded.minimum_charge,
			updated_at     = excluded.updated_at
	`, m.ActionType, m.Unit, m.UnitSize, m.BaseCost, m.MinimumCharge, toMicros(m.UpdatedAt))
	if err != nil {
		return mapSQLiteError(err, "failed to upsert pricing for "+entry.ActionType)
	}
	return nil
}

func (s *Store) InsertPricingIfMissing(ctx context.Context, entry domain.PricingEntry) (bool, error) {
	m := mapping.ToModelPricingEntry(entry)
	conn, err := s.writer(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO pricing_table (`+pricingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ActionType, m.Unit, m.UnitSize, m.BaseCost, m.MinimumCharge, toMicros(m.UpdatedAt))
	if err != nil {
		return false, mapSQLiteError(err, "failed to insert pricing for "+entry.ActionType)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapSQLiteError(err, "failed to read affected rows")
	}
	return n > 0, nil
}
