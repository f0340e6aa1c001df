package services

import (
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// tiers is the effective tier table after catalog overrides; nil keeps the
// built-in table.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, tiers domain.TierPolicies) *portssvc.ServiceContainer {
	if len(tiers) == 0 {
		tiers = domain.DefaultTierPolicies()
	}

	container := &portssvc.ServiceContainer{}

	container.Pricing = NewPricingService(repos.PricingRepo)

	container.Account = NewAccountService(
		repos.AccountRepo,
		repos.LedgerRepo,
		WithAccountTierPolicies(tiers),
	)

	container.Ledger = NewLedgerService(
		repos.LedgerRepo,
		repos.AccountRepo,
		repos.PricingRepo,
		WithTierPolicies(tiers),
		WithBurstPolicy(cfg.BurstPolicy()),
		WithCreditsPerCurrencyUnit(cfg.CreditsPerCurrencyUnit),
	)

	container.Refresh = NewRefreshService(
		repos.AccountRepo,
		repos.LedgerRepo,
		WithRefreshTierPolicies(tiers),
		WithRefreshCycle(cfg.Refresh.Cycle),
		WithRefreshBatchSize(cfg.Refresh.BatchSize),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.LedgerSvcFacade  = (*ledgerService)(nil)
	_ portssvc.PricingSvcFacade = (*pricingService)(nil)
	_ portssvc.RefreshSvc       = (*refreshService)(nil)
)
