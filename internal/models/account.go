package models

import "time"

// Account is the persisted row of the accounts table.
type Account struct {
	AccountID            string     `db:"account_id"`
	Tier                 string     `db:"tier"`
	MainBalance          int64      `db:"main_balance"`
	BonusBalance         int64      `db:"bonus_balance"`
	MonthlyRefreshAmount int64      `db:"monthly_refresh_amount"`
	LastRefreshAt        *time.Time `db:"last_refresh_at"` // Nullable
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}
