package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var (
	wordAnalysis = domain.PricingEntry{ActionType: "WORD_ANALYSIS", Unit: "per_word", UnitSize: 1, BaseCost: 1, MinimumCharge: 10}
	apiCall      = domain.PricingEntry{ActionType: "API_CALL", Unit: "per_request", UnitSize: 1, BaseCost: 5, MinimumCharge: 1}
)

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	accountRepo *MockAccountRepository
	ledgerRepo  *MockLedgerRepository
	pricingRepo *MockPricingRepository
	tx          *MockLedgerTx
	service     portssvc.LedgerSvcFacade
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	suite.accountRepo = new(MockAccountRepository)
	suite.ledgerRepo = new(MockLedgerRepository)
	suite.pricingRepo = new(MockPricingRepository)
	suite.tx = new(MockLedgerTx)
	suite.service = suite.newService()
}

func (suite *LedgerServiceTestSuite) newService(opts ...services.LedgerServiceOption) portssvc.LedgerSvcFacade {
	opts = append([]services.LedgerServiceOption{services.WithLedgerClock(fixedClock{suite.now})}, opts...)
	return services.NewLedgerService(suite.ledgerRepo, suite.accountRepo, suite.pricingRepo, opts...)
}

// lockAccount makes the next WithAccountLock hand out suite.tx holding acc.
func (suite *LedgerServiceTestSuite) lockAccount(acc domain.Account) {
	suite.ledgerRepo.On("WithAccountLock", mock.Anything, acc.AccountID).Return(suite.tx, nil).Once()
	suite.tx.On("Account").Return(acc)
}

type applied struct {
	account domain.Account
	txn     domain.Transaction
}

func (suite *LedgerServiceTestSuite) expectApply() *applied {
	out := &applied{}
	suite.tx.On("Apply", mock.Anything, mock.AnythingOfType("domain.Account"), mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) {
			out.account = args.Get(1).(domain.Account)
			out.txn = args.Get(2).(domain.Transaction)
		}).
		Return(nil).Once()
	return out
}

func freeAccount(main, bonus int64) domain.Account {
	return domain.Account{AccountID: "acc-1", Tier: domain.TierFree, MainBalance: main, BonusBalance: bonus}
}

func (suite *LedgerServiceTestSuite) TestCharge_Success() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "WORD_ANALYSIS").Return(&wordAnalysis, nil).Once()
	suite.lockAccount(freeAccount(100, 0))
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)).Return(3, nil).Once()
	got := suite.expectApply()

	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: " word_analysis ", Quantity: 5})

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.NotEmpty(txn.TransactionID)
	suite.Equal(int64(-10), txn.Amount)
	suite.Equal(domain.KindCharge, txn.Kind)
	suite.Equal(domain.StatusCompleted, txn.Status)
	suite.Equal(int64(100), txn.BalanceBefore)
	suite.Equal(int64(90), txn.BalanceAfter)
	suite.Equal("WORD_ANALYSIS x5", txn.Description)
	suite.Equal("WORD_ANALYSIS", *txn.ActionType)
	suite.Equal(suite.now, txn.CreatedAt)
	suite.Nil(txn.IdempotencyKey)

	suite.Equal(int64(90), got.account.MainBalance)
	suite.Equal(suite.now, got.account.UpdatedAt)
	mainUsed, _ := got.txn.Metadata.Int("main_used")
	suite.Equal(int64(10), mainUsed)
	suite.mockAssertAll()
}

func (suite *LedgerServiceTestSuite) TestCharge_DrawsBonusFirst() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "WORD_ANALYSIS").Return(&wordAnalysis, nil).Once()
	suite.lockAccount(freeAccount(100, 4))
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), mock.Anything).Return(0, nil).Once()
	got := suite.expectApply()

	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "WORD_ANALYSIS", Quantity: 5})

	suite.Require().NoError(err)
	suite.Equal(int64(104), txn.BalanceBefore)
	suite.Equal(int64(94), txn.BalanceAfter)
	suite.Equal(int64(0), got.account.BonusBalance)
	suite.Equal(int64(94), got.account.MainBalance)
	bonusUsed, _ := got.txn.Metadata.Int("bonus_used")
	suite.Equal(int64(4), bonusUsed)
}

func (suite *LedgerServiceTestSuite) TestCharge_InsufficientBalance() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "WORD_ANALYSIS").Return(&wordAnalysis, nil).Once()
	suite.lockAccount(freeAccount(5, 0))
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), mock.Anything).Return(0, nil).Once()

	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "WORD_ANALYSIS", Quantity: 5})

	suite.Nil(txn)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
	appErr, ok := apperrors.Details(err)
	suite.Require().True(ok)
	suite.Equal(int64(10), appErr.Details["required"])
	suite.Equal(int64(5), appErr.Details["available"])
	suite.tx.AssertNotCalled(suite.T(), "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCharge_Validation() {
	tests := []struct {
		name string
		req  domain.ChargeRequest
		kind error
	}{
		{name: "zero quantity", req: domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL"}, kind: apperrors.ErrInvalidQuantity},
		{name: "negative quantity", req: domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: -3}, kind: apperrors.ErrInvalidQuantity},
		{name: "missing action", req: domain.ChargeRequest{AccountID: "acc-1", Quantity: 1}, kind: apperrors.ErrUnknownActionType},
		{name: "missing account", req: domain.ChargeRequest{ActionType: "API_CALL", Quantity: 1}, kind: apperrors.ErrValidation},
		{name: "nested metadata", req: domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1,
			Metadata: domain.Metadata{"nested": map[string]any{"a": 1}}}, kind: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.Charge(suite.ctx, tt.req)
			suite.ErrorIs(err, tt.kind)
		})
	}
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithAccountLock", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCharge_UnknownActionType() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "TELEPORT").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "teleport", Quantity: 1})

	suite.ErrorIs(err, apperrors.ErrUnknownActionType)
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithAccountLock", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCharge_DailyLimitReached() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "API_CALL").Return(&apiCall, nil).Once()
	suite.lockAccount(freeAccount(100, 0))
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), mock.Anything).Return(1000, nil).Once()

	_, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1})

	suite.ErrorIs(err, apperrors.ErrUsageLimitExceeded)
	suite.tx.AssertNotCalled(suite.T(), "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCharge_DuplicateReference() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "API_CALL").Return(&apiCall, nil).Once()
	suite.lockAccount(freeAccount(100, 0))
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), mock.Anything).Return(0, nil).Once()
	suite.tx.On("ReferenceExists", mock.Anything, "doc-7").Return(true, nil).Once()

	_, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, ReferenceID: "doc-7"})

	suite.ErrorIs(err, apperrors.ErrDuplicateReference)
}

func (suite *LedgerServiceTestSuite) TestCharge_BurstSurcharge() {
	suite.service = suite.newService(services.WithBurstPolicy(domain.BurstPolicy{
		Mode:        domain.BurstSurcharge,
		Window:      time.Minute,
		Threshold:   3,
		Percent:     decimal.RequireFromString("0.25"),
		ActionTypes: []string{"API_CALL"},
	}))
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "API_CALL").Return(&apiCall, nil).Once()
	suite.lockAccount(freeAccount(100, 0))
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), mock.Anything).Return(10, nil).Once()
	suite.tx.On("CountChargesSince", mock.Anything, []string{"API_CALL"}, suite.now.Add(-time.Minute)).Return(3, nil).Once()
	got := suite.expectApply()

	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1})

	suite.Require().NoError(err)
	suite.Equal(int64(-7), txn.Amount, "ceil(5 * 1.25)")
	burst, _ := got.txn.Metadata["burst_applied"].(bool)
	suite.True(burst)
}

func (suite *LedgerServiceTestSuite) TestCharge_ReplaysIdempotencyKey() {
	existing := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Amount:        -10,
		Kind:          domain.KindCharge,
		ActionType:    domain.StringPtr("WORD_ANALYSIS"),
		Metadata:      domain.Metadata{"quantity": float64(5)},
	}
	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "key-1").Return(existing, nil).Once()

	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{
		AccountID: "acc-1", ActionType: "WORD_ANALYSIS", Quantity: 5, IdempotencyKey: "key-1",
	})

	suite.Require().NoError(err)
	suite.Equal("txn-1", txn.TransactionID)
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithAccountLock", mock.Anything, mock.Anything)
	suite.pricingRepo.AssertNotCalled(suite.T(), "FindPricingByActionType", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCharge_IdempotencyKeyReusedForOtherRequest() {
	existing := &domain.Transaction{TransactionID: "txn-1", AccountID: "acc-1", Kind: domain.KindBonus}
	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "key-1").Return(existing, nil).Once()

	_, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{
		AccountID: "acc-1", ActionType: "WORD_ANALYSIS", Quantity: 5, IdempotencyKey: "key-1",
	})

	suite.ErrorIs(err, apperrors.ErrIdempotencyConflict)
}

func (suite *LedgerServiceTestSuite) TestCharge_IdempotencyKeyReusedWithDifferentParameters() {
	existing := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Kind:          domain.KindCharge,
		ActionType:    domain.StringPtr("WORD_ANALYSIS"),
		ReferenceID:   domain.StringPtr("doc-1"),
		Metadata:      domain.Metadata{"quantity": float64(5)},
	}
	tests := []struct {
		name string
		req  domain.ChargeRequest
	}{
		{"different quantity", domain.ChargeRequest{ActionType: "WORD_ANALYSIS", Quantity: 50, ReferenceID: "doc-1"}},
		{"different reference", domain.ChargeRequest{ActionType: "WORD_ANALYSIS", Quantity: 5, ReferenceID: "doc-2"}},
		{"missing reference", domain.ChargeRequest{ActionType: "WORD_ANALYSIS", Quantity: 5}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "key-1").Return(existing, nil).Once()
			tt.req.AccountID = "acc-1"
			tt.req.IdempotencyKey = "key-1"

			_, err := suite.service.Charge(suite.ctx, tt.req)

			suite.ErrorIs(err, apperrors.ErrIdempotencyConflict)
		})
	}

	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "key-1").Return(existing, nil).Once()
	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{
		AccountID: "acc-1", ActionType: "word_analysis", Quantity: 5, ReferenceID: "doc-1", IdempotencyKey: "key-1",
	})
	suite.Require().NoError(err)
	suite.Equal("txn-1", txn.TransactionID)
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithAccountLock", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCharge_LostIdempotencyRaceReplaysWinner() {
	winner := &domain.Transaction{
		TransactionID: "txn-w", AccountID: "acc-1", Kind: domain.KindCharge,
		ActionType: domain.StringPtr("API_CALL"), Metadata: domain.Metadata{"quantity": int64(1)},
	}
	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "key-2").Return(nil, apperrors.ErrNotFound).Twice()
	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "key-2").Return(winner, nil).Once()
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "API_CALL").Return(&apiCall, nil).Once()
	suite.lockAccount(freeAccount(100, 0))
	suite.tx.On("FindTransactionByIdempotencyKey", mock.Anything, "key-2").Return(nil, apperrors.ErrNotFound).Once()
	suite.tx.On("CountChargesSince", mock.Anything, []string(nil), mock.Anything).Return(0, nil).Once()
	suite.tx.On("Apply", mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.NewAppError(apperrors.ErrDuplicateIdempotencyKey, "key-2", nil)).Once()

	txn, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{
		AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, IdempotencyKey: "key-2",
	})

	suite.Require().NoError(err)
	suite.Equal("txn-w", txn.TransactionID)
}

func (suite *LedgerServiceTestSuite) TestCharge_LockTimeout() {
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "API_CALL").Return(&apiCall, nil).Once()
	suite.ledgerRepo.On("WithAccountLock", mock.Anything, "acc-1").
		Return(nil, apperrors.NewAppError(apperrors.ErrLockTimeout, "busy", nil)).Once()

	_, err := suite.service.Charge(suite.ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1})

	suite.ErrorIs(err, apperrors.ErrLockTimeout)
}

func (suite *LedgerServiceTestSuite) TestEstimateCost_AppliesTierDiscount() {
	acc := domain.Account{AccountID: "acc-1", Tier: domain.TierPro}
	suite.accountRepo.On("FindAccountByID", mock.Anything, "acc-1").Return(&acc, nil).Once()
	entry := domain.PricingEntry{ActionType: "TEXT_ANALYSIS", UnitSize: 500, BaseCost: 10, MinimumCharge: 5}
	suite.pricingRepo.On("FindPricingByActionType", mock.Anything, "TEXT_ANALYSIS").Return(&entry, nil).Once()

	breakdown, err := suite.service.EstimateCost(suite.ctx, "acc-1", "text_analysis", 1200)

	suite.Require().NoError(err)
	suite.Equal(int64(3), breakdown.Buckets)
	suite.Equal(int64(30), breakdown.Raw)
	suite.Equal(int64(21), breakdown.Cost)
	suite.ledgerRepo.AssertNotCalled(suite.T(), "WithAccountLock", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRefund_Charge() {
	original := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Amount:        -10,
		Kind:          domain.KindCharge,
		Status:        domain.StatusCompleted,
		ActionType:    domain.StringPtr("WORD_ANALYSIS"),
		Metadata:      domain.Metadata{"bonus_used": float64(4), "main_used": float64(6)},
	}
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(original, nil).Once()
	suite.lockAccount(freeAccount(90, 0))
	suite.tx.On("FindTransactionForUpdate", mock.Anything, "txn-1").Return(original, nil).Once()
	suite.tx.On("MarkTransactionRefunded", mock.Anything, "txn-1").Return(nil).Once()
	got := suite.expectApply()

	refund, err := suite.service.Refund(suite.ctx, "txn-1", "")

	suite.Require().NoError(err)
	suite.Equal(domain.KindRefund, refund.Kind)
	suite.Equal(int64(10), refund.Amount)
	suite.Equal(int64(90), refund.BalanceBefore)
	suite.Equal(int64(100), refund.BalanceAfter)
	suite.Equal("txn-1", *refund.RelatedTransactionID)
	suite.Equal("Refund: refund", refund.Description)
	suite.Equal(int64(4), got.account.BonusBalance)
	suite.Equal(int64(96), got.account.MainBalance)
	suite.mockAssertAll()
}

func (suite *LedgerServiceTestSuite) TestRefund_AlreadyRefunded() {
	original := &domain.Transaction{TransactionID: "txn-1", AccountID: "acc-1", Amount: -10, Kind: domain.KindCharge, Status: domain.StatusCompleted}
	refunded := *original
	refunded.Status = domain.StatusRefunded
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(original, nil).Once()
	suite.lockAccount(freeAccount(100, 0))
	suite.tx.On("FindTransactionForUpdate", mock.Anything, "txn-1").Return(&refunded, nil).Once()

	_, err := suite.service.Refund(suite.ctx, "txn-1", "duplicate")

	suite.ErrorIs(err, apperrors.ErrAlreadyRefunded)
	suite.tx.AssertNotCalled(suite.T(), "MarkTransactionRefunded", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestRefund_NotRefundableKind() {
	bonus := &domain.Transaction{TransactionID: "txn-b", AccountID: "acc-1", Amount: 50, Kind: domain.KindSignupBonus, Status: domain.StatusCompleted}
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "txn-b").Return(bonus, nil).Once()

	_, err := suite.service.Refund(suite.ctx, "txn-b", "")

	suite.ErrorIs(err, apperrors.ErrNotRefundable)
}

func (suite *LedgerServiceTestSuite) TestRefund_UnknownTransaction() {
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.Refund(suite.ctx, "missing", "")

	suite.ErrorIs(err, apperrors.ErrTransactionNotFound)
	suite.Equal(apperrors.ErrTransactionNotFound, apperrors.Kind(err))
}

func (suite *LedgerServiceTestSuite) TestRefund_PurchaseAlreadySpent() {
	purchase := &domain.Transaction{TransactionID: "txn-p", AccountID: "acc-1", Amount: 500, Kind: domain.KindPurchase, Status: domain.StatusCompleted}
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "txn-p").Return(purchase, nil).Once()
	suite.lockAccount(freeAccount(120, 0))
	suite.tx.On("FindTransactionForUpdate", mock.Anything, "txn-p").Return(purchase, nil).Once()

	_, err := suite.service.Refund(suite.ctx, "txn-p", "chargeback")

	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
}

func (suite *LedgerServiceTestSuite) TestAdminAdjust() {
	suite.Run("zero amount", func() {
		_, err := suite.service.AdminAdjust(suite.ctx, domain.AdjustmentRequest{AccountID: "acc-1", Reason: "fix"})
		suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	})
	suite.Run("missing reason", func() {
		_, err := suite.service.AdminAdjust(suite.ctx, domain.AdjustmentRequest{AccountID: "acc-1", Amount: 5})
		suite.ErrorIs(err, apperrors.ErrValidation)
	})
	suite.Run("debit below zero", func() {
		suite.lockAccount(freeAccount(10, 50))
		_, err := suite.service.AdminAdjust(suite.ctx, domain.AdjustmentRequest{AccountID: "acc-1", Amount: -11, Reason: "clawback"})
		suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
	})
}

func (suite *LedgerServiceTestSuite) TestAdminAdjust_Credit() {
	suite.lockAccount(freeAccount(10, 0))
	got := suite.expectApply()

	txn, err := suite.service.AdminAdjust(suite.ctx, domain.AdjustmentRequest{
		AccountID: "acc-1", Amount: 25, Reason: "goodwill", ActorID: "admin-7",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.KindAdminAdjustment, txn.Kind)
	suite.Equal(int64(35), got.account.MainBalance)
	actor, _ := txn.Metadata.String("actor_id")
	suite.Equal("admin-7", actor)
}

func (suite *LedgerServiceTestSuite) TestGrantBonus() {
	suite.lockAccount(freeAccount(10, 5))
	got := suite.expectApply()

	txn, err := suite.service.GrantBonus(suite.ctx, domain.BonusGrant{AccountID: "acc-1", Amount: 20, Reason: "referral"})

	suite.Require().NoError(err)
	suite.Equal(domain.KindBonus, txn.Kind)
	suite.Equal(int64(25), got.account.BonusBalance)
	suite.Equal(int64(10), got.account.MainBalance)
	suite.Equal(int64(35), txn.BalanceAfter)

	_, err = suite.service.GrantBonus(suite.ctx, domain.BonusGrant{AccountID: "acc-1", Amount: 0})
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
}

func (suite *LedgerServiceTestSuite) TestCredits_RejectedAboveBalanceCap() {
	suite.Run("admin credit", func() {
		suite.lockAccount(freeAccount(domain.MaxBalance-10, 5))
		_, err := suite.service.AdminAdjust(suite.ctx, domain.AdjustmentRequest{
			AccountID: "acc-1", Amount: math.MaxInt64, Reason: "typo",
		})
		suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	})

	suite.SetupTest()
	suite.Run("bonus", func() {
		suite.lockAccount(freeAccount(domain.MaxBalance-10, 5))
		_, err := suite.service.GrantBonus(suite.ctx, domain.BonusGrant{AccountID: "acc-1", Amount: 6})
		suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	})

	suite.SetupTest()
	suite.Run("bonus up to the cap", func() {
		suite.lockAccount(freeAccount(domain.MaxBalance-10, 5))
		got := suite.expectApply()
		txn, err := suite.service.GrantBonus(suite.ctx, domain.BonusGrant{AccountID: "acc-1", Amount: 5})
		suite.Require().NoError(err)
		suite.Equal(domain.MaxBalance, txn.BalanceAfter)
		suite.Equal(int64(10), got.account.BonusBalance)
	})

	suite.SetupTest()
	suite.Run("purchase", func() {
		suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "purchase:stripe:pi_9").Return(nil, apperrors.ErrNotFound).Once()
		suite.lockAccount(freeAccount(domain.MaxBalance-1, 0))
		suite.tx.On("FindTransactionByIdempotencyKey", mock.Anything, "purchase:stripe:pi_9").Return(nil, apperrors.ErrNotFound).Once()
		_, err := suite.service.RecordPurchase(suite.ctx, "acc-1", domain.PaymentReceipt{
			Provider: "stripe", PaymentID: "pi_9", Currency: "USD", Amount: "1", Status: domain.PaymentSucceeded,
		}, "")
		suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	})
}

func (suite *LedgerServiceTestSuite) TestRecordPurchase_FailedAttemptDoesNotBlockSuccess() {
	failedAttempt := &domain.Transaction{
		TransactionID: "txn-f", AccountID: "acc-1", Kind: domain.KindPurchase,
		Status: domain.StatusFailed, ReferenceID: domain.StringPtr("stripe:pi_1:failed"),
	}
	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "purchase:stripe:pi_1:failed").Return(failedAttempt, nil).Once()

	replayed, err := suite.service.RecordPurchase(suite.ctx, "acc-1", domain.PaymentReceipt{
		Provider: "stripe", PaymentID: "pi_1", Currency: "USD", Amount: "1", Status: domain.PaymentFailed,
	}, "")
	suite.Require().NoError(err)
	suite.Equal("txn-f", replayed.TransactionID)

	suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "explicit-1").Return(failedAttempt, nil).Once()
	_, err = suite.service.RecordPurchase(suite.ctx, "acc-1", domain.PaymentReceipt{
		Provider: "stripe", PaymentID: "pi_1", Currency: "USD", Amount: "1", Status: domain.PaymentSucceeded,
	}, "explicit-1")
	suite.ErrorIs(err, apperrors.ErrIdempotencyConflict, "a failed row never stands in for a success")
}

func (suite *LedgerServiceTestSuite) TestRecordPurchase() {
	suite.Run("succeeded", func() {
		suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "purchase:stripe:pi_1").Return(nil, apperrors.ErrNotFound).Once()
		suite.lockAccount(freeAccount(10, 0))
		suite.tx.On("FindTransactionByIdempotencyKey", mock.Anything, "purchase:stripe:pi_1").Return(nil, apperrors.ErrNotFound).Once()
		got := suite.expectApply()

		txn, err := suite.service.RecordPurchase(suite.ctx, "acc-1", domain.PaymentReceipt{
			Provider: "stripe", PaymentID: "pi_1", Currency: "USD", Amount: "4.99", Status: domain.PaymentSucceeded,
		}, "")

		suite.Require().NoError(err)
		suite.Equal(int64(4990), txn.Amount)
		suite.Equal(domain.StatusCompleted, txn.Status)
		suite.Equal("stripe:pi_1", *txn.ReferenceID)
		suite.Equal(int64(5000), got.account.MainBalance)
	})

	suite.SetupTest()
	suite.Run("failed", func() {
		suite.ledgerRepo.On("FindTransactionByIdempotencyKey", mock.Anything, "pay-2").Return(nil, apperrors.ErrNotFound).Once()
		suite.lockAccount(freeAccount(10, 0))
		suite.tx.On("FindTransactionByIdempotencyKey", mock.Anything, "pay-2").Return(nil, apperrors.ErrNotFound).Once()
		got := suite.expectApply()

		txn, err := suite.service.RecordPurchase(suite.ctx, "acc-1", domain.PaymentReceipt{
			Provider: "stripe", PaymentID: "pi_2", Currency: "USD", Amount: "1", Status: domain.PaymentFailed,
		}, "pay-2")

		suite.Require().NoError(err)
		suite.Equal(domain.StatusFailed, txn.Status)
		suite.Equal("stripe:pi_2:failed", *txn.ReferenceID)
		suite.Equal(txn.BalanceBefore, txn.BalanceAfter)
		suite.Equal(int64(10), got.account.MainBalance)
	})

	suite.Run("bad amount", func() {
		_, err := suite.service.RecordPurchase(suite.ctx, "acc-1", domain.PaymentReceipt{
			Provider: "stripe", PaymentID: "pi_3", Amount: "-2", Status: domain.PaymentSucceeded,
		}, "")
		suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	})
}

func (suite *LedgerServiceTestSuite) TestGetTransaction_OtherAccountIsHidden() {
	txn := &domain.Transaction{TransactionID: "txn-1", AccountID: "acc-2"}
	suite.ledgerRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil)

	_, err := suite.service.GetTransaction(suite.ctx, "acc-1", "txn-1")
	suite.ErrorIs(err, apperrors.ErrTransactionNotFound)

	got, err := suite.service.GetTransaction(suite.ctx, "", "txn-1")
	suite.Require().NoError(err)
	suite.Equal("acc-2", got.AccountID)
}

func (suite *LedgerServiceTestSuite) TestListTransactions() {
	acc := freeAccount(0, 0)
	suite.accountRepo.On("FindAccountByID", mock.Anything, "acc-1").Return(&acc, nil)
	want := domain.TransactionFilter{ActionType: domain.StringPtr("API_CALL")}
	token := "next"
	suite.ledgerRepo.On("ListTransactions", mock.Anything, "acc-1", want, 100, (*string)(nil)).
		Return([]domain.Transaction{{TransactionID: "txn-1"}}, &token, nil).Once()

	page, next, err := suite.service.ListTransactions(suite.ctx, "acc-1",
		domain.TransactionFilter{ActionType: domain.StringPtr("api_call")}, 500, nil)

	suite.Require().NoError(err)
	suite.Len(page, 1)
	suite.Equal("next", *next)

	bad := domain.TransactionKind("BOGUS")
	_, _, err = suite.service.ListTransactions(suite.ctx, "acc-1", domain.TransactionFilter{Kind: &bad}, 10, nil)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) mockAssertAll() {
	suite.ledgerRepo.AssertExpectations(suite.T())
	suite.pricingRepo.AssertExpectations(suite.T())
	suite.tx.AssertExpectations(suite.T())
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
