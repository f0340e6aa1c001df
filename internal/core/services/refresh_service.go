package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/platform/metrics"
	"github.com/SscSPs/credit_ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

const (
	defaultRefreshCycle     = 30 * 24 * time.Hour
	defaultRefreshBatchSize = 100
)

type refreshService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	locker      portsrepo.AccountLocker
	tiers       domain.TierPolicies
	cycle       time.Duration
	batchSize   int
}

// RefreshServiceOption configures the refresh service.
type RefreshServiceOption func(*refreshService)

// WithRefreshCycle sets how long an account waits between refreshes.
func WithRefreshCycle(cycle time.Duration) RefreshServiceOption {
	return func(s *refreshService) {
		if cycle > 0 {
			s.cycle = cycle
		}
	}
}

// WithRefreshBatchSize sets the page size used while scanning due accounts.
func WithRefreshBatchSize(size int) RefreshServiceOption {
	return func(s *refreshService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithRefreshTierPolicies replaces the built-in tier table.
func WithRefreshTierPolicies(tiers domain.TierPolicies) RefreshServiceOption {
	return func(s *refreshService) {
		if len(tiers) > 0 {
			s.tiers = tiers
		}
	}
}

// WithRefreshClock pins the service clock.
func WithRefreshClock(clock Clock) RefreshServiceOption {
	return func(s *refreshService) {
		s.Clock = clock
	}
}

// NewRefreshService creates the monthly refresh service.
func NewRefreshService(accountRepo portsrepo.AccountReader, locker portsrepo.AccountLocker, opts ...RefreshServiceOption) portssvc.RefreshSvc {
	s := &refreshService{
		accountRepo: accountRepo,
		locker:      locker,
		tiers:       domain.DefaultTierPolicies(),
		cycle:       defaultRefreshCycle,
		batchSize:   defaultRefreshBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.RefreshSvc = (*refreshService)(nil)

// RunOnce scans due accounts in id order. A failing account is logged and
// counted; it never aborts the pass.
func (s *refreshService) RunOnce(ctx context.Context) (portssvc.RefreshSummary, error) {
	started := time.Now()
	defer func() { metrics.ObserveRefreshRun(time.Since(started)) }()

	var summary portssvc.RefreshSummary
	now := s.Now()
	cutoff := now.Add(-s.cycle)
	afterID := ""

	for {
		ids, err := s.accountRepo.ListAccountsDueForRefresh(ctx, cutoff, afterID, s.batchSize)
		if err != nil {
			s.LogError(ctx, err, "Failed to list accounts due for refresh")
			return summary, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.Scanned++
			txn, err := s.RefreshAccount(ctx, id, now)
			switch {
			case err != nil:
				summary.Failed++
				metrics.IncRefreshAccount(metrics.ResultError)
				s.LogError(ctx, err, "Account refresh failed", slog.String("account_id", id))
			case txn == nil:
				summary.Skipped++
				metrics.IncRefreshAccount(metrics.ResultSkipped)
			default:
				summary.Refreshed++
				metrics.IncRefreshAccount(metrics.ResultSuccess)
			}
		}
		if len(ids) < s.batchSize {
			break
		}
		afterID = ids[len(ids)-1]
	}

	s.LogInfo(ctx, "Refresh pass finished",
		slog.Int("scanned", summary.Scanned),
		slog.Int("refreshed", summary.Refreshed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// RefreshAccount resets the main balance to rollover + monthly allowance.
// Due-ness is re-checked under the lock, so concurrent passes refresh an
// account at most once per cycle.
func (s *refreshService) RefreshAccount(ctx context.Context, accountID string, now time.Time) (*domain.Transaction, error) {
	var result *domain.Transaction
	err := s.locker.WithAccountLock(ctx, accountID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		acc := tx.Account()
		if !acc.IsRefreshDue(now, s.cycle) {
			return nil
		}

		policy := s.tiers.Policy(acc.Tier)
		previousMain := acc.MainBalance
		newMain, rollover := accounting.RefreshedMainBalance(policy, acc.MainBalance, acc.MonthlyRefreshAmount)
		before := acc.Spendable()

		acc.MainBalance = newMain
		acc.LastRefreshAt = &now
		acc.UpdatedAt = now

		txn := domain.Transaction{
			TransactionID: uuid.NewString(),
			AccountID:     accountID,
			Amount:        newMain - previousMain,
			Kind:          domain.KindMonthlyRefresh,
			Status:        domain.StatusCompleted,
			BalanceBefore: before,
			BalanceAfter:  acc.Spendable(),
			Description:   "Monthly credit refresh",
			Metadata: domain.Metadata{
				"rollover":               rollover,
				"monthly_refresh_amount": acc.MonthlyRefreshAmount,
				"previous_main":          previousMain,
				"forfeited":              max(previousMain-rollover, 0),
			},
			CreatedAt: now,
		}
		if err := tx.Apply(ctx, acc, txn); err != nil {
			return err
		}
		result = &txn
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if result != nil {
		metrics.AddCreditsMoved(string(result.Kind), result.Amount)
		s.LogDebug(ctx, "Account refreshed",
			slog.String("account_id", accountID),
			slog.Int64("amount", result.Amount),
			slog.Int64("balance_after", result.BalanceAfter))
	}
	return result, nil
}

// RefreshScheduler runs the refresh pass on a fixed interval.
type RefreshScheduler struct {
	svc      portssvc.RefreshSvc
	interval time.Duration
	logger   *slog.Logger
}

// NewRefreshScheduler constructs a RefreshScheduler.
func NewRefreshScheduler(svc portssvc.RefreshSvc, interval time.Duration, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{svc: svc, interval: interval, logger: logger}
}

// Start runs one pass immediately and then one per interval until ctx ends.
func (s *RefreshScheduler) Start(ctx context.Context) {
	if s == nil || s.svc == nil || s.interval <= 0 {
		return
	}
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *RefreshScheduler) runOnce(ctx context.Context) {
	summary, err := s.svc.RunOnce(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Refresh pass aborted", slog.String("error", err.Error()), slog.Int("refreshed", summary.Refreshed))
	}
}
