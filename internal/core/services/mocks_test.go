package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	"github.com/stretchr/testify/mock"
)

// fixedClock pins service time.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsDueForRefresh(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]string, error) {
	args := m.Called(ctx, cutoff, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account domain.Account, opening []domain.Transaction) error {
	args := m.Called(ctx, account, opening)
	return args.Error(0)
}

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface.
// WithAccountLock hands fn the LedgerTx configured with Return.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	args := m.Called(ctx, accountID)
	if err := args.Error(1); err != nil {
		return err
	}
	return fn(ctx, args.Get(0).(portsrepo.LedgerTx))
}

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, accountID, filter, limit, nextToken)
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, token, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), token, args.Error(2)
}

func (m *MockLedgerRepository) CountCharges(ctx context.Context, accountID string, actionTypes []string, since time.Time) (int, error) {
	args := m.Called(ctx, accountID, actionTypes, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepository) SumAffectingAmounts(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerTx is a mock type for the LedgerTx unit of work
type MockLedgerTx struct {
	mock.Mock
}

func (m *MockLedgerTx) Account() domain.Account {
	args := m.Called()
	return args.Get(0).(domain.Account)
}

func (m *MockLedgerTx) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerTx) ReferenceExists(ctx context.Context, referenceID string) (bool, error) {
	args := m.Called(ctx, referenceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerTx) CountChargesSince(ctx context.Context, actionTypes []string, since time.Time) (int, error) {
	args := m.Called(ctx, actionTypes, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerTx) FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerTx) MarkTransactionRefunded(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockLedgerTx) Apply(ctx context.Context, account domain.Account, txn domain.Transaction) error {
	args := m.Called(ctx, account, txn)
	return args.Error(0)
}

// MockPricingRepository is a mock type for the PricingRepositoryFacade interface
type MockPricingRepository struct {
	mock.Mock
}

func (m *MockPricingRepository) FindPricingByActionType(ctx context.Context, actionType string) (*domain.PricingEntry, error) {
	args := m.Called(ctx, actionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingEntry), args.Error(1)
}

func (m *MockPricingRepository) ListPricing(ctx context.Context) ([]domain.PricingEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricingEntry), args.Error(1)
}

func (m *MockPricingRepository) UpsertPricing(ctx context.Context, entry domain.PricingEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPricingRepository) InsertPricingIfMissing(ctx context.Context, entry domain.PricingEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

var (
	_ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)
	_ portsrepo.LedgerRepositoryFacade  = (*MockLedgerRepository)(nil)
	_ portsrepo.LedgerTx                = (*MockLedgerTx)(nil)
	_ portsrepo.PricingRepositoryFacade = (*MockPricingRepository)(nil)
)
