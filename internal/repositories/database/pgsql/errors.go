package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation   = "23505"
	pgLockNotAvailable  = "55P03"
	pgQueryCanceled     = "57014"
	pgCheckViolation    = "23514"
	pgForeignKeyMissing = "23503"
)

// mapPgError translates driver errors into the ledger's error kinds.
// Anything unrecognized becomes a store failure.
func mapPgError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable:
			return apperrors.NewAppError(apperrors.ErrLockTimeout, "account is busy, retry later", err)
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case "idx_transactions_idempotency_key":
				return apperrors.NewAppError(apperrors.ErrDuplicateIdempotencyKey, "idempotency key already recorded", err).
					WithField("idempotency_key")
			case "idx_transactions_account_reference":
				return apperrors.NewAppError(apperrors.ErrDuplicateReference, "reference id already used for this account", err).
					WithField("reference_id")
			case "idx_transactions_refund_of":
				return apperrors.NewAppError(apperrors.ErrAlreadyRefunded, "transaction was already refunded", err).
					WithField("transaction_id")
			default:
				return apperrors.NewAppError(apperrors.ErrDuplicate, "resource already exists", err)
			}
		case pgCheckViolation:
			return apperrors.NewAppError(apperrors.ErrInsufficientBalance, "balance constraint violated", err)
		case pgForeignKeyMissing:
			return apperrors.NewAppError(apperrors.ErrNotFound, "referenced row does not exist", err)
		case pgQueryCanceled:
			return apperrors.NewAppError(apperrors.ErrLockTimeout, "statement timed out", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewAppError(apperrors.ErrLockTimeout, "timed out waiting for the store", err)
	}
	return apperrors.NewStoreFailure(msg, err)
}
