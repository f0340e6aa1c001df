package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates a missing or invalid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// Ledger error kinds.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReference  = errors.New("duplicate reference")
	ErrUnknownActionType   = errors.New("unknown action type")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAlreadyRefunded     = errors.New("transaction already refunded")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotRefundable       = errors.New("transaction is not refundable")
	ErrLockTimeout         = errors.New("timed out waiting for account lock")
	ErrStoreFailure        = errors.New("ledger store failure")
	ErrUsageLimitExceeded  = errors.New("usage limit exceeded")
	ErrIdempotencyConflict = errors.New("idempotency key belongs to another request")

	// ErrDuplicateIdempotencyKey is raised by stores when an insert hits the
	// idempotency key uniqueness constraint. Services resolve it by re-reading
	// the stored transaction.
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already recorded")
)

// AppError carries a kind sentinel plus the structured detail a caller needs
// to render a precise message.
type AppError struct {
	Kind    error
	Message string
	Field   string
	Details map[string]any
	Err     error
}

// NewAppError builds an AppError of the given kind wrapping an optional cause.
func NewAppError(kind error, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// NewStoreFailure wraps a driver error that broke an atomic unit of work.
func NewStoreFailure(message string, err error) *AppError {
	return NewAppError(ErrStoreFailure, message, err)
}

// NewNotFoundError reports a missing resource of the given type.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, id),
		Field:   resource + "_id",
	}
}

// WithField records which input field the error refers to.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// WithDetail attaches a key/value pair to the error.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Message != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Kind returns the first ledger kind found in err's chain, or nil.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Details extracts the AppError detail from err's chain, if any.
func Details(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Ordered most specific first: a TransactionNotFound must not be reported as
// a generic NotFound.
var kinds = []error{
	ErrInsufficientBalance,
	ErrDuplicateReference,
	ErrUnknownActionType,
	ErrInvalidQuantity,
	ErrInvalidAmount,
	ErrAlreadyRefunded,
	ErrTransactionNotFound,
	ErrNotRefundable,
	ErrLockTimeout,
	ErrUsageLimitExceeded,
	ErrIdempotencyConflict,
	ErrDuplicateIdempotencyKey,
	ErrStoreFailure,
	ErrUnauthorized,
	ErrForbidden,
	ErrDuplicate,
	ErrNotFound,
	ErrValidation,
}
