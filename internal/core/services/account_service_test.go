package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	accountRepo *MockAccountRepository
	ledgerRepo  *MockLedgerRepository
	tx          *MockLedgerTx
	service     portssvc.AccountSvcFacade
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	suite.accountRepo = new(MockAccountRepository)
	suite.ledgerRepo = new(MockLedgerRepository)
	suite.tx = new(MockLedgerTx)
	suite.service = services.NewAccountService(suite.accountRepo, suite.ledgerRepo, services.WithAccountClock(fixedClock{suite.now}))
}

func (suite *AccountServiceTestSuite) TestOpenAccount_GrantsSignupBonus() {
	var (
		created domain.Account
		opening []domain.Transaction
	)
	suite.accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("domain.Account"), mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(domain.Account)
			opening = args.Get(2).([]domain.Transaction)
		}).
		Return(nil).Once()

	balance, err := suite.service.OpenAccount(suite.ctx, "acc-1", domain.TierPro)

	suite.Require().NoError(err)
	suite.Equal(int64(0), balance.Main)
	suite.Equal(int64(300), balance.Bonus)
	suite.Equal(int64(1000), balance.MonthlyRefreshAmount)
	suite.Equal(domain.TierPro, created.Tier)
	suite.Equal(suite.now, created.CreatedAt)
	suite.Require().Len(opening, 1)
	suite.Equal(domain.KindSignupBonus, opening[0].Kind)
	suite.Equal(int64(300), opening[0].Amount)
	suite.Equal(int64(0), opening[0].BalanceBefore)
	suite.Equal(int64(300), opening[0].BalanceAfter)
	suite.accountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestOpenAccount_Invalid() {
	_, err := suite.service.OpenAccount(suite.ctx, "", domain.TierFree)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.OpenAccount(suite.ctx, "acc-1", domain.Tier("GOLD"))
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.accountRepo.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestOpenAccount_Duplicate() {
	suite.accountRepo.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.NewAppError(apperrors.ErrDuplicate, "account exists", nil)).Once()

	_, err := suite.service.OpenAccount(suite.ctx, "acc-1", domain.TierFree)

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestChangeTier_UpgradeGrantsBonusDifference() {
	acc := domain.Account{AccountID: "acc-1", Tier: domain.TierBasic, MainBalance: 40, BonusBalance: 10, MonthlyRefreshAmount: 300}
	suite.ledgerRepo.On("WithAccountLock", mock.Anything, "acc-1").Return(suite.tx, nil).Once()
	suite.tx.On("Account").Return(acc)

	var (
		accounts []domain.Account
		txns     []domain.Transaction
	)
	suite.tx.On("Apply", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			accounts = append(accounts, args.Get(1).(domain.Account))
			txns = append(txns, args.Get(2).(domain.Transaction))
		}).
		Return(nil).Twice()

	planChange, err := suite.service.ChangeTier(suite.ctx, "acc-1", domain.TierPro, "upgrade")

	suite.Require().NoError(err)
	suite.Equal(domain.KindPlanChange, planChange.Kind)
	suite.Equal(int64(0), planChange.Amount)
	suite.Equal(int64(50), planChange.BalanceBefore)
	suite.Equal(int64(50), planChange.BalanceAfter)

	suite.Require().Len(txns, 2)
	suite.Equal(domain.KindSignupBonus, txns[1].Kind)
	suite.Equal(int64(200), txns[1].Amount)
	suite.Equal(int64(250), txns[1].BalanceAfter)
	suite.Equal(domain.TierPro, accounts[1].Tier)
	suite.Equal(int64(1000), accounts[1].MonthlyRefreshAmount)
	suite.Equal(int64(210), accounts[1].BonusBalance)
	suite.tx.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestChangeTier_DowngradeHasNoBonus() {
	acc := domain.Account{AccountID: "acc-1", Tier: domain.TierEnterprise, MainBalance: 7000}
	suite.ledgerRepo.On("WithAccountLock", mock.Anything, "acc-1").Return(suite.tx, nil).Once()
	suite.tx.On("Account").Return(acc)
	suite.tx.On("Apply", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	planChange, err := suite.service.ChangeTier(suite.ctx, "acc-1", domain.TierFree, "")

	suite.Require().NoError(err)
	oldTier, _ := planChange.Metadata.String("old_tier")
	suite.Equal("ENTERPRISE", oldTier)
	suite.tx.AssertNumberOfCalls(suite.T(), "Apply", 1)
}

func (suite *AccountServiceTestSuite) TestChangeTier_SameTier() {
	suite.ledgerRepo.On("WithAccountLock", mock.Anything, "acc-1").Return(suite.tx, nil).Once()
	suite.tx.On("Account").Return(domain.Account{AccountID: "acc-1", Tier: domain.TierFree})

	_, err := suite.service.ChangeTier(suite.ctx, "acc-1", domain.TierFree, "")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.tx.AssertNotCalled(suite.T(), "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetBalance() {
	acc := &domain.Account{AccountID: "acc-1", Tier: domain.TierBasic, MainBalance: 30, BonusBalance: 12}
	suite.accountRepo.On("FindAccountByID", mock.Anything, "acc-1").Return(acc, nil).Once()
	suite.accountRepo.On("FindAccountByID", mock.Anything, "nope").Return(nil, apperrors.NewNotFoundError("account", "nope")).Once()

	balance, err := suite.service.GetBalance(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	suite.Equal(int64(42), balance.Spendable)

	_, err = suite.service.GetBalance(suite.ctx, "nope")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestReconcile() {
	acc := &domain.Account{AccountID: "acc-1", MainBalance: 90, BonusBalance: 10}
	suite.accountRepo.On("FindAccountByID", mock.Anything, "acc-1").Return(acc, nil)

	suite.ledgerRepo.On("SumAffectingAmounts", mock.Anything, "acc-1").Return(int64(100), nil).Once()
	result, err := suite.service.Reconcile(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	suite.True(result.Consistent())

	suite.ledgerRepo.On("SumAffectingAmounts", mock.Anything, "acc-1").Return(int64(97), nil).Once()
	result, err = suite.service.Reconcile(suite.ctx, "acc-1")
	suite.Require().NoError(err)
	suite.False(result.Consistent())
	suite.Equal(int64(3), result.Drift)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
