package dto

import (
	"github.com/SscSPs/credit_ledger/internal/core/domain"
)

// OpenAccountRequest defines the data needed to open a ledger account.
type OpenAccountRequest struct {
	AccountID string `json:"accountID" binding:"required,max=64"`
	Tier      string `json:"tier" binding:"required,oneof=FREE BASIC PRO ENTERPRISE"`
}

// AdjustBalanceRequest defines a privileged credit (positive) or debit
// (negative) of the main balance.
type AdjustBalanceRequest struct {
	Amount         int64  `json:"amount" binding:"required"`
	Reason         string `json:"reason" binding:"required,max=256"`
	IdempotencyKey string `json:"idempotencyKey" binding:"omitempty,idempotency_key"`
}

// ToDomain builds the adjustment for accountID on behalf of actorID.
func (r AdjustBalanceRequest) ToDomain(accountID, actorID string) domain.AdjustmentRequest {
	return domain.AdjustmentRequest{
		AccountID:      accountID,
		Amount:         r.Amount,
		Reason:         r.Reason,
		ActorID:        actorID,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// GrantBonusRequest defines a bonus-balance credit.
type GrantBonusRequest struct {
	Amount         int64  `json:"amount" binding:"required"`
	Reason         string `json:"reason" binding:"required,max=256"`
	IdempotencyKey string `json:"idempotencyKey" binding:"omitempty,idempotency_key"`
}

// ToDomain builds the grant for accountID.
func (r GrantBonusRequest) ToDomain(accountID string) domain.BonusGrant {
	return domain.BonusGrant{
		AccountID:      accountID,
		Amount:         r.Amount,
		Reason:         r.Reason,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// ChangeTierRequest moves an account to another tier.
type ChangeTierRequest struct {
	Tier   string `json:"tier" binding:"required,oneof=FREE BASIC PRO ENTERPRISE"`
	Reason string `json:"reason" binding:"max=256"`
}

// RecordPurchaseRequest books a payment the payment provider has settled.
// Amount is a decimal string in Currency.
type RecordPurchaseRequest struct {
	Provider       string `json:"provider" binding:"required,max=64"`
	PaymentID      string `json:"paymentID" binding:"required,max=128"`
	Currency       string `json:"currency" binding:"required,len=3"`
	Amount         string `json:"amount" binding:"required"`
	Status         string `json:"status" binding:"required,oneof=succeeded failed"`
	IdempotencyKey string `json:"idempotencyKey" binding:"omitempty,idempotency_key"`
}

// ToReceipt converts the request into a payment receipt.
func (r RecordPurchaseRequest) ToReceipt() domain.PaymentReceipt {
	return domain.PaymentReceipt{
		Provider:  r.Provider,
		PaymentID: r.PaymentID,
		Currency:  r.Currency,
		Amount:    r.Amount,
		Status:    domain.PaymentStatus(r.Status),
	}
}

// RefundRequest defines the body of a refund.
type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=256"`
}

// ReconciliationResponse compares stored balances with the ledger.
type ReconciliationResponse struct {
	AccountID  string `json:"accountID"`
	Spendable  int64  `json:"spendable"`
	LedgerSum  int64  `json:"ledgerSum"`
	Drift      int64  `json:"drift"`
	Consistent bool   `json:"consistent"`
}

// ToReconciliationResponse converts a domain.Reconciliation.
func ToReconciliationResponse(r *domain.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		AccountID:  r.AccountID,
		Spendable:  r.Spendable,
		LedgerSum:  r.LedgerSum,
		Drift:      r.Drift,
		Consistent: r.Consistent(),
	}
}

// StatementParams defines query parameters for a statement export. From
// and To are RFC 3339 timestamps.
type StatementParams struct {
	Format string `form:"format,default=xlsx"`
	From   string `form:"from" binding:"required"`
	To     string `form:"to" binding:"required"`
}

// RefreshSummaryResponse reports one refresh pass.
type RefreshSummaryResponse struct {
	Scanned   int `json:"scanned"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
