package domain

import "time"

// Account is the ledger's view of a credit-holding account. Identity and
// subscription status are owned by the user-management system; the ledger
// only tracks what it needs to meter usage.
type Account struct {
	AccountID            string     `json:"accountID"`
	Tier                 Tier       `json:"tier"`
	MainBalance          int64      `json:"mainBalance"`
	BonusBalance         int64      `json:"bonusBalance"`
	MonthlyRefreshAmount int64      `json:"monthlyRefreshAmount"`
	LastRefreshAt        *time.Time `json:"lastRefreshAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// MaxBalance caps an account's spendable total so balances and ledger sums
// stay far from int64 overflow.
const MaxBalance int64 = 1_000_000_000_000_000

// Spendable is the total a charge may draw from.
func (a Account) Spendable() int64 {
	return a.MainBalance + a.BonusBalance
}

// HasSufficientBalance reports whether amount can be debited.
func (a Account) HasSufficientBalance(amount int64) bool {
	return a.Spendable() >= amount
}

// CanCredit reports whether amount can be added without the spendable total
// exceeding MaxBalance.
func (a Account) CanCredit(amount int64) bool {
	return amount >= 0 && amount <= MaxBalance-a.Spendable()
}

// Debit draws amount from the bonus balance first and the main balance for
// the remainder. It returns how much came from each pool. The caller must
// have checked HasSufficientBalance.
func (a *Account) Debit(amount int64) (bonusUsed, mainUsed int64) {
	bonusUsed = min(amount, a.BonusBalance)
	mainUsed = amount - bonusUsed
	a.BonusBalance -= bonusUsed
	a.MainBalance -= mainUsed
	return bonusUsed, mainUsed
}

// Credit adds amount to the main balance.
func (a *Account) Credit(amount int64) {
	a.MainBalance += amount
}

// CreditBonus adds amount to the bonus balance.
func (a *Account) CreditBonus(amount int64) {
	a.BonusBalance += amount
}

// IsRefreshDue reports whether the account has a recurring allowance and its
// last refresh is at least one cycle old.
func (a Account) IsRefreshDue(now time.Time, cycle time.Duration) bool {
	if a.MonthlyRefreshAmount <= 0 {
		return false
	}
	if a.LastRefreshAt == nil {
		return true
	}
	return !a.LastRefreshAt.After(now.Add(-cycle))
}

// Balance is the read model returned by balance lookups.
type Balance struct {
	AccountID            string     `json:"accountID"`
	Tier                 Tier       `json:"tier"`
	Main                 int64      `json:"main"`
	Bonus                int64      `json:"bonus"`
	Spendable            int64      `json:"spendable"`
	MonthlyRefreshAmount int64      `json:"monthlyRefreshAmount"`
	LastRefreshAt        *time.Time `json:"lastRefreshAt,omitempty"`
}

// BalanceOf projects an account into its balance read model.
func BalanceOf(a Account) Balance {
	return Balance{
		AccountID:            a.AccountID,
		Tier:                 a.Tier,
		Main:                 a.MainBalance,
		Bonus:                a.BonusBalance,
		Spendable:            a.Spendable(),
		MonthlyRefreshAmount: a.MonthlyRefreshAmount,
		LastRefreshAt:        a.LastRefreshAt,
	}
}

// Reconciliation compares an account's stored balance with its ledger.
type Reconciliation struct {
	AccountID string `json:"accountID"`
	Spendable int64  `json:"spendable"`
	LedgerSum int64  `json:"ledgerSum"`
	Drift     int64  `json:"drift"`
}

// Consistent reports whether the balance matches the ledger.
func (r Reconciliation) Consistent() bool {
	return r.Drift == 0
}
