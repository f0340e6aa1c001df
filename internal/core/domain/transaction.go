package domain

import "time"

// TransactionKind classifies a balance-affecting event.
type TransactionKind string

const (
	KindCharge          TransactionKind = "CHARGE"
	KindRefund          TransactionKind = "REFUND"
	KindMonthlyRefresh  TransactionKind = "MONTHLY_REFRESH"
	KindBonus           TransactionKind = "BONUS"
	KindSignupBonus     TransactionKind = "SIGNUP_BONUS"
	KindPurchase        TransactionKind = "PURCHASE"
	KindAdminAdjustment TransactionKind = "ADMIN_ADJUSTMENT"
	KindPlanChange      TransactionKind = "PLAN_CHANGE"
)

// IsValid reports whether k is a known kind.
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindCharge, KindRefund, KindMonthlyRefresh, KindBonus, KindSignupBonus,
		KindPurchase, KindAdminAdjustment, KindPlanChange:
		return true
	}
	return false
}

// IsRefundable reports whether transactions of this kind may be refunded.
func (k TransactionKind) IsRefundable() bool {
	return k == KindCharge || k == KindPurchase
}

// TransactionStatus is the lifecycle state of a transaction. The only
// permitted transition is COMPLETED -> REFUNDED.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusRefunded  TransactionStatus = "REFUNDED"
	StatusFailed    TransactionStatus = "FAILED"
)

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	return s == StatusCompleted || s == StatusRefunded || s == StatusFailed
}

// Transaction is one immutable entry of the ledger. Amount is signed: negative
// for debits, positive for credits. BalanceBefore and BalanceAfter are the
// account's spendable total (main + bonus) around the event.
type Transaction struct {
	TransactionID        string            `json:"transactionID"`
	AccountID            string            `json:"accountID"`
	Amount               int64             `json:"amount"`
	Kind                 TransactionKind   `json:"kind"`
	Status               TransactionStatus `json:"status"`
	BalanceBefore        int64             `json:"balanceBefore"`
	BalanceAfter         int64             `json:"balanceAfter"`
	Description          string            `json:"description"`
	ActionType           *string           `json:"actionType,omitempty"`
	Metadata             Metadata          `json:"metadata,omitempty"`
	IdempotencyKey       *string           `json:"idempotencyKey,omitempty"`
	ReferenceID          *string           `json:"referenceID,omitempty"`
	RelatedTransactionID *string           `json:"relatedTransactionID,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// AffectsBalance reports whether the transaction counts toward the ledger sum.
// A REFUNDED transaction did move the balance; its reversal is a separate
// REFUND row.
func (t Transaction) AffectsBalance() bool {
	return t.Status != StatusFailed
}

// TransactionFilter narrows history queries. Zero values match everything.
type TransactionFilter struct {
	Kind        *TransactionKind
	Status      *TransactionStatus
	ActionType  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ChargeRequest is the input to a metered charge.
type ChargeRequest struct {
	AccountID      string
	ActionType     string
	Quantity       int64
	IdempotencyKey string
	ReferenceID    string
	Description    string
	Metadata       Metadata
}

// AdjustmentRequest is the input to a privileged balance adjustment.
type AdjustmentRequest struct {
	AccountID      string
	Amount         int64
	Reason         string
	ActorID        string
	IdempotencyKey string
}

// BonusGrant is the input to a bonus-balance credit.
type BonusGrant struct {
	AccountID      string
	Amount         int64
	Reason         string
	IdempotencyKey string
}

// PaymentStatus is the outcome reported by the payment authority.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentReceipt describes a purchase the external payment authority has
// already decided on. Amount is a decimal string in the payment currency.
type PaymentReceipt struct {
	Provider  string
	PaymentID string
	Currency  string
	Amount    string
	Status    PaymentStatus
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
