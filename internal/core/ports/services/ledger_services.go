package services

import (
	"context"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// CostEstimatorSvc prices actions without mutating anything.
type CostEstimatorSvc interface {
	EstimateCost(ctx context.Context, accountID, actionType string, quantity int64) (*domain.CostBreakdown, error)
}

// ChargeSvc runs metered charges.
type ChargeSvc interface {
	// Charge debits the priced cost of an action and records a CHARGE.
	// Retrying with the same idempotency key returns the first result.
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Transaction, error)
}

// RefundSvc reverses refundable transactions exactly once.
type RefundSvc interface {
	Refund(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
}

// LedgerAdminSvc defines privileged balance operations.
type LedgerAdminSvc interface {
	AdminAdjust(ctx context.Context, req domain.AdjustmentRequest) (*domain.Transaction, error)
	GrantBonus(ctx context.Context, req domain.BonusGrant) (*domain.Transaction, error)
	// RecordPurchase books the outcome of an authorized payment.
	RecordPurchase(ctx context.Context, accountID string, receipt domain.PaymentReceipt, idempotencyKey string) (*domain.Transaction, error)
}

// LedgerReaderSvc defines history queries.
type LedgerReaderSvc interface {
	GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	CostEstimatorSvc
	ChargeSvc
	RefundSvc
	LedgerAdminSvc
	LedgerReaderSvc
}
