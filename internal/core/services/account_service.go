package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/platform/metrics"
	"github.com/google/uuid"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	tiers       domain.TierPolicies
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountTierPolicies replaces the built-in tier table.
func WithAccountTierPolicies(tiers domain.TierPolicies) AccountServiceOption {
	return func(s *accountService) {
		if len(tiers) > 0 {
			s.tiers = tiers
		}
	}
}

// WithAccountClock pins the service clock.
func WithAccountClock(clock Clock) AccountServiceOption {
	return func(s *accountService) {
		s.Clock = clock
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		tiers:       domain.DefaultTierPolicies(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// OpenAccount creates an account with zero main balance and the tier's
// signup bonus in the bonus pool.
func (s *accountService) OpenAccount(ctx context.Context, accountID string, tier domain.Tier) (*domain.Balance, error) {
	if accountID == "" {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, "account id is required", nil).WithField("account_id")
	}
	if !tier.IsValid() {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, fmt.Sprintf("unknown tier %q", tier), nil).WithField("tier")
	}

	now := s.Now()
	policy := s.tiers.Policy(tier)
	account := domain.Account{
		AccountID:            accountID,
		Tier:                 tier,
		MonthlyRefreshAmount: policy.MonthlyRefreshAmount,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	var opening []domain.Transaction
	if policy.SignupBonus > 0 {
		account.CreditBonus(policy.SignupBonus)
		opening = append(opening, domain.Transaction{
			TransactionID: uuid.NewString(),
			AccountID:     accountID,
			Amount:        policy.SignupBonus,
			Kind:          domain.KindSignupBonus,
			Status:        domain.StatusCompleted,
			BalanceBefore: 0,
			BalanceAfter:  account.Spendable(),
			Description:   fmt.Sprintf("%s signup bonus", tier),
			Metadata:      domain.Metadata{"tier": string(tier)},
			CreatedAt:     now,
		})
	}

	if err := s.accountRepo.CreateAccount(ctx, account, opening); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, err, "Account already exists", slog.String("account_id", accountID))
		} else {
			s.LogError(ctx, err, "Failed to create account", slog.String("account_id", accountID))
		}
		return nil, err
	}

	if policy.SignupBonus > 0 {
		metrics.AddCreditsMoved(string(domain.KindSignupBonus), policy.SignupBonus)
	}
	s.LogInfo(ctx, "Account opened",
		slog.String("account_id", accountID),
		slog.String("tier", string(tier)),
		slog.Int64("signup_bonus", policy.SignupBonus))

	balance := domain.BalanceOf(account)
	return &balance, nil
}

// ChangeTier switches an account's tier under its lock. Upgrades receive the
// difference between the two tiers' signup bonuses.
func (s *accountService) ChangeTier(ctx context.Context, accountID string, tier domain.Tier, reason string) (*domain.Transaction, error) {
	if !tier.IsValid() {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, fmt.Sprintf("unknown tier %q", tier), nil).WithField("tier")
	}

	var planChange *domain.Transaction
	err := s.ledgerRepo.WithAccountLock(ctx, accountID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		acc := tx.Account()
		oldTier := acc.Tier
		if oldTier == tier {
			return apperrors.NewAppError(apperrors.ErrValidation, fmt.Sprintf("account is already on tier %s", tier), nil).WithField("tier")
		}
		oldPolicy, newPolicy := s.tiers.Policy(oldTier), s.tiers.Policy(tier)
		now := s.Now()

		acc.Tier = tier
		acc.MonthlyRefreshAmount = newPolicy.MonthlyRefreshAmount
		acc.UpdatedAt = now

		balance := acc.Spendable()
		txn := domain.Transaction{
			TransactionID: uuid.NewString(),
			AccountID:     accountID,
			Amount:        0,
			Kind:          domain.KindPlanChange,
			Status:        domain.StatusCompleted,
			BalanceBefore: balance,
			BalanceAfter:  balance,
			Description:   fmt.Sprintf("Plan change %s -> %s", oldTier, tier),
			Metadata: domain.Metadata{
				"old_tier": string(oldTier),
				"new_tier": string(tier),
				"reason":   reason,
			},
			CreatedAt: now,
		}
		if err := tx.Apply(ctx, acc, txn); err != nil {
			return err
		}
		planChange = &txn

		bonus := newPolicy.SignupBonus - oldPolicy.SignupBonus
		if tierRank(tier) <= tierRank(oldTier) || bonus <= 0 {
			return nil
		}
		acc.CreditBonus(bonus)
		return tx.Apply(ctx, acc, domain.Transaction{
			TransactionID: uuid.NewString(),
			AccountID:     accountID,
			Amount:        bonus,
			Kind:          domain.KindSignupBonus,
			Status:        domain.StatusCompleted,
			BalanceBefore: balance,
			BalanceAfter:  acc.Spendable(),
			Description:   fmt.Sprintf("%s upgrade bonus", tier),
			Metadata:      domain.Metadata{"tier": string(tier), "upgraded_from": string(oldTier)},
			CreatedAt:     now,
		})
	})
	if err != nil {
		s.LogWarn(ctx, err, "Tier change failed", slog.String("account_id", accountID), slog.String("tier", string(tier)))
		return nil, err
	}

	s.LogInfo(ctx, "Tier changed",
		slog.String("account_id", accountID),
		slog.String("old_tier", fmt.Sprint(planChange.Metadata["old_tier"])),
		slog.String("new_tier", string(tier)))
	return planChange, nil
}

func tierRank(t domain.Tier) int {
	return slices.Index(domain.AllTiers, t)
}

// GetBalance reads an account's balances without taking the lock.
func (s *accountService) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	balance := domain.BalanceOf(*account)
	return &balance, nil
}

// Reconcile compares the account's spendable total with its ledger sum.
func (s *accountService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sum, err := s.ledgerRepo.SumAffectingAmounts(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum ledger", slog.String("account_id", accountID))
		return nil, err
	}

	result := &domain.Reconciliation{
		AccountID: accountID,
		Spendable: account.Spendable(),
		LedgerSum: sum,
		Drift:     account.Spendable() - sum,
	}
	if !result.Consistent() {
		s.GetLogger(ctx).Warn("Ledger drift detected",
			slog.String("account_id", accountID),
			slog.Int64("spendable", result.Spendable),
			slog.Int64("ledger_sum", result.LedgerSum))
	}
	return result, nil
}
