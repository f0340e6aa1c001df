package sqlite

import (
	"context"
	"errors"
	"strings"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
)

// mapSQLiteError translates driver errors into the ledger's error kinds.
// The driver reports constraint names only through the message text.
func mapSQLiteError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "UNIQUE constraint failed: transactions.idempotency_key"):
		return apperrors.NewAppError(apperrors.ErrDuplicateIdempotencyKey, "idempotency key already recorded", err).
			WithField("idempotency_key")
	case strings.Contains(text, "UNIQUE constraint failed: transactions.account_id, transactions.reference_id"):
		return apperrors.NewAppError(apperrors.ErrDuplicateReference, "reference id already used for this account", err).
			WithField("reference_id")
	case strings.Contains(text, "UNIQUE constraint failed: transactions.related_transaction_id"):
		return apperrors.NewAppError(apperrors.ErrAlreadyRefunded, "transaction was already refunded", err).
			WithField("transaction_id")
	case strings.Contains(text, "UNIQUE constraint failed"):
		return apperrors.NewAppError(apperrors.ErrDuplicate, "resource already exists", err)
	case strings.Contains(text, "CHECK constraint failed"):
		return apperrors.NewAppError(apperrors.ErrInsufficientBalance, "balance constraint violated", err)
	case strings.Contains(text, "FOREIGN KEY constraint failed"):
		return apperrors.NewAppError(apperrors.ErrNotFound, "referenced row does not exist", err)
	case strings.Contains(text, "database is locked"), strings.Contains(text, "SQLITE_BUSY"):
		return apperrors.NewAppError(apperrors.ErrLockTimeout, "store is busy, retry later", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError(apperrors.ErrLockTimeout, "timed out waiting for the store", err)
	}
	return apperrors.NewStoreFailure(msg, err)
}
