package models

import "time"

// Transaction is the persisted row of the append-only transactions table.
// Metadata holds the JSON-encoded metadata object.
type Transaction struct {
	TransactionID        string    `db:"transaction_id"`
	AccountID            string    `db:"account_id"`
	Amount               int64     `db:"amount"`
	Kind                 string    `db:"kind"`
	Status               string    `db:"status"`
	BalanceBefore        int64     `db:"balance_before"`
	BalanceAfter         int64     `db:"balance_after"`
	Description          string    `db:"description"`
	ActionType           *string   `db:"action_type"`     // Nullable
	Metadata             []byte    `db:"metadata"`        // JSON object
	IdempotencyKey       *string   `db:"idempotency_key"` // Nullable, globally unique
	ReferenceID          *string   `db:"reference_id"`    // Nullable, unique per account
	RelatedTransactionID *string   `db:"related_transaction_id"`
	CreatedAt            time.Time `db:"created_at"`
}
