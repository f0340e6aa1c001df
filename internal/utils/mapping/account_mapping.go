package mapping

import (
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:            d.AccountID,
		Tier:                 string(d.Tier),
		MainBalance:          d.MainBalance,
		BonusBalance:         d.BonusBalance,
		MonthlyRefreshAmount: d.MonthlyRefreshAmount,
		LastRefreshAt:        d.LastRefreshAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	var lastRefresh = m.LastRefreshAt
	if lastRefresh != nil {
		t := lastRefresh.UTC()
		lastRefresh = &t
	}
	return domain.Account{
		AccountID:            m.AccountID,
		Tier:                 domain.ParseTier(m.Tier),
		MainBalance:          m.MainBalance,
		BonusBalance:         m.BonusBalance,
		MonthlyRefreshAmount: m.MonthlyRefreshAmount,
		LastRefreshAt:        lastRefresh,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}
