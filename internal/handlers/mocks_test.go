package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockAccountService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockAccountService) OpenAccount(ctx context.Context, accountID string, tier domain.Tier) (*domain.Balance, error) {
	args := m.Called(ctx, accountID, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockAccountService) ChangeTier(ctx context.Context, accountID string, tier domain.Tier, reason string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, tier, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) EstimateCost(ctx context.Context, accountID, actionType string, quantity int64) (*domain.CostBreakdown, error) {
	args := m.Called(ctx, accountID, actionType, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CostBreakdown), args.Error(1)
}

func (m *MockLedgerService) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) Refund(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) AdminAdjust(ctx context.Context, req domain.AdjustmentRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GrantBonus(ctx context.Context, req domain.BonusGrant) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) RecordPurchase(ctx context.Context, accountID string, receipt domain.PaymentReceipt, idempotencyKey string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, receipt, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, accountID, filter, limit, nextToken)
	txns, _ := args.Get(0).([]domain.Transaction)
	next, _ := args.Get(1).(*string)
	return txns, next, args.Error(2)
}

// --- Mock PricingService ---
type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) ListPricing(ctx context.Context) ([]domain.PricingEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]domain.PricingEntry)
	return entries, args.Error(1)
}

func (m *MockPricingService) GetPricing(ctx context.Context, actionType string) (*domain.PricingEntry, error) {
	args := m.Called(ctx, actionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingEntry), args.Error(1)
}

func (m *MockPricingService) UpsertPricing(ctx context.Context, entry domain.PricingEntry) (*domain.PricingEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingEntry), args.Error(1)
}

func (m *MockPricingService) SeedPricing(ctx context.Context, entries []domain.PricingEntry, force bool) (int, error) {
	args := m.Called(ctx, entries, force)
	return args.Int(0), args.Error(1)
}

// --- Mock RefreshService ---
type MockRefreshService struct {
	mock.Mock
}

func (m *MockRefreshService) RunOnce(ctx context.Context) (portssvc.RefreshSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(portssvc.RefreshSummary), args.Error(1)
}

func (m *MockRefreshService) RefreshAccount(ctx context.Context, accountID string, now time.Time) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// Ensure mocks implement the interfaces
var (
	_ portssvc.AccountSvcFacade = (*MockAccountService)(nil)
	_ portssvc.LedgerSvcFacade  = (*MockLedgerService)(nil)
	_ portssvc.PricingSvcFacade = (*MockPricingService)(nil)
	_ portssvc.RefreshSvc       = (*MockRefreshService)(nil)
)
