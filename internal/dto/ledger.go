package dto

import (
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ChargeRequest defines the body of a metered charge. The idempotency key
// may also be sent in the Idempotency-Key header.
type ChargeRequest struct {
	ActionType     string         `json:"actionType" binding:"required,action_type"`
	Quantity       int64          `json:"quantity"`
	IdempotencyKey string         `json:"idempotencyKey" binding:"omitempty,idempotency_key"`
	ReferenceID    string         `json:"referenceID" binding:"omitempty,max=128"`
	Description    string         `json:"description" binding:"max=256"`
	Metadata       map[string]any `json:"metadata"`
}

// ToDomain builds the service request for accountID.
func (r ChargeRequest) ToDomain(accountID, idempotencyKey string) domain.ChargeRequest {
	return domain.ChargeRequest{
		AccountID:      accountID,
		ActionType:     r.ActionType,
		Quantity:       r.Quantity,
		IdempotencyKey: idempotencyKey,
		ReferenceID:    r.ReferenceID,
		Description:    r.Description,
		Metadata:       domain.Metadata(r.Metadata),
	}
}

// EstimateRequest defines the body of a cost estimate.
type EstimateRequest struct {
	ActionType string `json:"actionType" binding:"required,action_type"`
	Quantity   int64  `json:"quantity"`
}

// CostEstimateResponse explains a priced action.
type CostEstimateResponse struct {
	ActionType   string          `json:"actionType"`
	Quantity     int64           `json:"quantity"`
	Buckets      int64           `json:"buckets"`
	Raw          int64           `json:"raw"`
	AfterMinimum int64           `json:"afterMinimum"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	BurstRate    decimal.Decimal `json:"burstRate"`
	BurstApplied bool            `json:"burstApplied"`
	Cost         int64           `json:"cost"`
}

// ToCostEstimateResponse converts a domain.CostBreakdown.
func ToCostEstimateResponse(b *domain.CostBreakdown) CostEstimateResponse {
	return CostEstimateResponse{
		ActionType:   b.ActionType,
		Quantity:     b.Quantity,
		Buckets:      b.Buckets,
		Raw:          b.Raw,
		AfterMinimum: b.AfterMinimum,
		DiscountRate: b.DiscountRate,
		BurstRate:    b.BurstRate,
		BurstApplied: b.BurstApplied,
		Cost:         b.Cost,
	}
}

// BalanceResponse defines the data returned for a balance query.
type BalanceResponse struct {
	AccountID            string      `json:"accountID"`
	Tier                 domain.Tier `json:"tier"`
	Main                 int64       `json:"main"`
	Bonus                int64       `json:"bonus"`
	Spendable            int64       `json:"spendable"`
	MonthlyRefreshAmount int64       `json:"monthlyRefreshAmount"`
	LastRefreshAt        *time.Time  `json:"lastRefreshAt,omitempty"`
}

// ToBalanceResponse converts a domain.Balance to BalanceResponse DTO
func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		AccountID:            b.AccountID,
		Tier:                 b.Tier,
		Main:                 b.Main,
		Bonus:                b.Bonus,
		Spendable:            b.Spendable,
		MonthlyRefreshAmount: b.MonthlyRefreshAmount,
		LastRefreshAt:        b.LastRefreshAt,
	}
}

// TransactionResponse defines the data returned for a ledger transaction.
type TransactionResponse struct {
	TransactionID        string                   `json:"transactionID"`
	AccountID            string                   `json:"accountID"`
	Amount               int64                    `json:"amount"`
	Kind                 domain.TransactionKind   `json:"kind"`
	Status               domain.TransactionStatus `json:"status"`
	BalanceBefore        int64                    `json:"balanceBefore"`
	BalanceAfter         int64                    `json:"balanceAfter"`
	Description          string                   `json:"description"`
	ActionType           *string                  `json:"actionType,omitempty"`
	Metadata             map[string]any           `json:"metadata,omitempty"`
	IdempotencyKey       *string                  `json:"idempotencyKey,omitempty"`
	ReferenceID          *string                  `json:"referenceID,omitempty"`
	RelatedTransactionID *string                  `json:"relatedTransactionID,omitempty"`
	CreatedAt            time.Time                `json:"createdAt"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        t.TransactionID,
		AccountID:            t.AccountID,
		Amount:               t.Amount,
		Kind:                 t.Kind,
		Status:               t.Status,
		BalanceBefore:        t.BalanceBefore,
		BalanceAfter:         t.BalanceAfter,
		Description:          t.Description,
		ActionType:           t.ActionType,
		Metadata:             t.Metadata,
		IdempotencyKey:       t.IdempotencyKey,
		ReferenceID:          t.ReferenceID,
		RelatedTransactionID: t.RelatedTransactionID,
		CreatedAt:            t.CreatedAt,
	}
}

// ToListTransactionResponse converts a slice of domain transactions.
func ToListTransactionResponse(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}

// ListTransactionsParams defines query parameters for listing transactions.
// From and To are RFC 3339 timestamps.
type ListTransactionsParams struct {
	Limit      int     `form:"limit,default=20" binding:"min=1"`
	NextToken  *string `form:"nextToken"`
	Kind       string  `form:"kind"`
	Status     string  `form:"status"`
	ActionType string  `form:"actionType" binding:"omitempty,action_type"`
	From       string  `form:"from"`
	To         string  `form:"to"`
}

// ListTransactionsResponse wraps one page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
