package services

import (
	"context"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// RefreshSummary reports one pass over the accounts due for a refresh.
type RefreshSummary struct {
	Scanned   int `json:"scanned"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RefreshSvc recomputes monthly allowances with capped rollover.
type RefreshSvc interface {
	// RunOnce refreshes every due account, each in its own locked unit.
	RunOnce(ctx context.Context) (RefreshSummary, error)

	// RefreshAccount refreshes one account if it is due at now. It returns
	// nil without error when the account is not due.
	RefreshAccount(ctx context.Context, accountID string, now time.Time) (*domain.Transaction, error)
}
