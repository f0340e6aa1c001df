package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/core/services"
	"github.com/SscSPs/credit_ledger/internal/repositories/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store   *sqlite.Store
	account portssvc.AccountSvcFacade
	ledger  portssvc.LedgerSvcFacade
	refresh portssvc.RefreshSvc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLockTimeout(t, 5*time.Second)
}

func newHarnessWithLockTimeout(t *testing.T, lockTimeout time.Duration) *harness {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), lockTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &harness{
		store:   store,
		account: services.NewAccountService(store, store),
		ledger:  services.NewLedgerService(store, store, store),
		refresh: services.NewRefreshService(store, store),
	}
}

// openWithBalance opens a FREE account (50 signup bonus) and tops the main
// balance up so the spendable total is spendable.
func (h *harness) openWithBalance(t *testing.T, accountID string, tier domain.Tier, main int64) {
	t.Helper()
	ctx := context.Background()
	_, err := h.account.OpenAccount(ctx, accountID, tier)
	require.NoError(t, err)
	if main > 0 {
		_, err = h.ledger.AdminAdjust(ctx, domain.AdjustmentRequest{AccountID: accountID, Amount: main, Reason: "top up", ActorID: "test"})
		require.NoError(t, err)
	}
}

func (h *harness) spendable(t *testing.T, accountID string) int64 {
	t.Helper()
	balance, err := h.account.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return balance.Spendable
}

func (h *harness) assertReconciled(t *testing.T, accountID string) {
	t.Helper()
	result, err := h.account.Reconcile(context.Background(), accountID)
	require.NoError(t, err)
	assert.True(t, result.Consistent(), "drift %d", result.Drift)
}

func TestStore_ChargeRefundLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 50)
	require.Equal(t, int64(100), h.spendable(t, "acc-1"))

	charge, err := h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "WORD_ANALYSIS", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(-10), charge.Amount)
	assert.Equal(t, int64(90), charge.BalanceAfter)
	assert.Equal(t, int64(90), h.spendable(t, "acc-1"))

	_, err = h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "WORD_ANALYSIS", Quantity: 1000})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, int64(90), h.spendable(t, "acc-1"))

	refund, err := h.ledger.Refund(ctx, charge.TransactionID, "customer request")
	require.NoError(t, err)
	assert.Equal(t, int64(10), refund.Amount)
	assert.Equal(t, int64(100), h.spendable(t, "acc-1"))

	balance, err := h.account.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.Bonus, "bonus consumed by the charge is restored to bonus")

	stored, err := h.ledger.GetTransaction(ctx, "acc-1", charge.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, stored.Status)
	bonusUsed, ok := stored.Metadata.Int("bonus_used")
	require.True(t, ok)
	assert.Equal(t, int64(10), bonusUsed)

	_, err = h.ledger.Refund(ctx, charge.TransactionID, "again")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRefunded)
	assert.Equal(t, int64(100), h.spendable(t, "acc-1"))

	h.assertReconciled(t, "acc-1")
}

func TestStore_MonthlyRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "pro-1", domain.TierPro, 200)

	summary, err := h.refresh.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Refreshed)

	balance, err := h.account.GetBalance(ctx, "pro-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1040), balance.Main)
	assert.Equal(t, int64(300), balance.Bonus)
	require.NotNil(t, balance.LastRefreshAt)

	summary, err = h.refresh.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Refreshed, "an account is refreshed once per cycle")

	h.assertReconciled(t, "pro-1")
}

func TestStore_ConcurrentChargesNeverOverdraw(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 50)

	const workers = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperrors.Kind(err) == apperrors.ErrInsufficientBalance:
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, ok)
	assert.Equal(t, 5, rejected)
	assert.Equal(t, int64(0), h.spendable(t, "acc-1"))
	h.assertReconciled(t, "acc-1")
}

func TestStore_IdempotentCharge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 0)

	req := domain.ChargeRequest{AccountID: "acc-1", ActionType: "UPLOAD_TXT", Quantity: 1, IdempotencyKey: "upload-1"}
	first, err := h.ledger.Charge(ctx, req)
	require.NoError(t, err)
	second, err := h.ledger.Charge(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, int64(40), h.spendable(t, "acc-1"))

	_, err = h.ledger.GrantBonus(ctx, domain.BonusGrant{AccountID: "acc-1", Amount: 5, IdempotencyKey: "upload-1"})
	assert.ErrorIs(t, err, apperrors.ErrIdempotencyConflict)
}

func TestStore_DuplicateReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 0)

	_, err := h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, ReferenceID: "doc-1"})
	require.NoError(t, err)
	_, err = h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, ReferenceID: "doc-1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)
}

func TestStore_Pagination(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 100)
	for i := 0; i < 5; i++ {
		_, err := h.ledger.Charge(ctx, domain.ChargeRequest{
			AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, ReferenceID: fmt.Sprintf("ref-%d", i),
		})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	var (
		token *string
		pages int
		last  time.Time
	)
	for {
		page, next, err := h.ledger.ListTransactions(ctx, "acc-1", domain.TransactionFilter{}, 2, token)
		require.NoError(t, err)
		pages++
		for _, txn := range page {
			assert.False(t, seen[txn.TransactionID], "transaction %s listed twice", txn.TransactionID)
			seen[txn.TransactionID] = true
			if !last.IsZero() {
				assert.False(t, txn.CreatedAt.After(last), "history is newest first")
			}
			last = txn.CreatedAt
		}
		if next == nil {
			break
		}
		token = next
	}
	assert.Len(t, seen, 7, "signup bonus, top up and five charges")
	assert.Equal(t, 4, pages)

	kind := domain.KindCharge
	charges, _, err := h.ledger.ListTransactions(ctx, "acc-1", domain.TransactionFilter{Kind: &kind}, 50, nil)
	require.NoError(t, err)
	assert.Len(t, charges, 5)

	bad := "!!not base64!!"
	_, _, err = h.ledger.ListTransactions(ctx, "acc-1", domain.TransactionFilter{}, 2, &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStore_AccountErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierBasic, 0)

	_, err := h.account.OpenAccount(ctx, "acc-1", domain.TierFree)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = h.account.GetBalance(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "missing", ActionType: "API_CALL", Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_PurchaseAndRefund(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 0)

	purchase, err := h.ledger.RecordPurchase(ctx, "acc-1", domain.PaymentReceipt{
		Provider: "stripe", PaymentID: "pi_1", Currency: "USD", Amount: "0.5", Status: domain.PaymentSucceeded,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(550), h.spendable(t, "acc-1"))

	failed, err := h.ledger.RecordPurchase(ctx, "acc-1", domain.PaymentReceipt{
		Provider: "stripe", PaymentID: "pi_2", Currency: "USD", Amount: "3", Status: domain.PaymentFailed,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, failed.Status)
	assert.Equal(t, int64(550), h.spendable(t, "acc-1"))
	h.assertReconciled(t, "acc-1")

	_, err = h.ledger.Refund(ctx, purchase.TransactionID, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, int64(50), h.spendable(t, "acc-1"))

	_, err = h.ledger.Refund(ctx, failed.TransactionID, "")
	assert.ErrorIs(t, err, apperrors.ErrNotRefundable)
	h.assertReconciled(t, "acc-1")
}

func TestStore_ChangeTier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 0)

	_, err := h.account.ChangeTier(ctx, "acc-1", domain.TierBasic, "upgrade")
	require.NoError(t, err)

	balance, err := h.account.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierBasic, balance.Tier)
	assert.Equal(t, int64(300), balance.MonthlyRefreshAmount)
	assert.Equal(t, int64(100), balance.Bonus)
	h.assertReconciled(t, "acc-1")
}

func TestStore_FailedPurchaseThenSucceeded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 0)

	failedReceipt := domain.PaymentReceipt{Provider: "stripe", PaymentID: "pi_1", Currency: "USD", Amount: "1", Status: domain.PaymentFailed}
	failed, err := h.ledger.RecordPurchase(ctx, "acc-1", failedReceipt, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, failed.Status)
	assert.Equal(t, int64(50), h.spendable(t, "acc-1"))

	succeededReceipt := failedReceipt
	succeededReceipt.Status = domain.PaymentSucceeded
	paid, err := h.ledger.RecordPurchase(ctx, "acc-1", succeededReceipt, "")
	require.NoError(t, err)
	assert.NotEqual(t, failed.TransactionID, paid.TransactionID)
	assert.Equal(t, domain.StatusCompleted, paid.Status)
	assert.Equal(t, int64(1050), h.spendable(t, "acc-1"))

	// Redelivered notifications for either outcome have no further effect.
	again, err := h.ledger.RecordPurchase(ctx, "acc-1", succeededReceipt, "")
	require.NoError(t, err)
	assert.Equal(t, paid.TransactionID, again.TransactionID)
	againFailed, err := h.ledger.RecordPurchase(ctx, "acc-1", failedReceipt, "")
	require.NoError(t, err)
	assert.Equal(t, failed.TransactionID, againFailed.TransactionID)
	assert.Equal(t, int64(1050), h.spendable(t, "acc-1"))

	// A success recorded under a caller-chosen key still cannot be booked twice.
	_, err = h.ledger.RecordPurchase(ctx, "acc-1", succeededReceipt, "webhook-evt-2")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)
	assert.Equal(t, int64(1050), h.spendable(t, "acc-1"))
	h.assertReconciled(t, "acc-1")
}

func TestStore_LockWaitIsBounded(t *testing.T) {
	h := newHarnessWithLockTimeout(t, 100*time.Millisecond)
	ctx := context.Background()
	h.openWithBalance(t, "acc-1", domain.TierFree, 50)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- h.store.WithAccountLock(ctx, "acc-1", func(ctx context.Context, tx portsrepo.LedgerTx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	// Reads do not queue behind the writer.
	balance, err := h.account.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Spendable)
	_, err = h.ledger.EstimateCost(ctx, "acc-1", "API_CALL", 1)
	require.NoError(t, err)
	_, _, err = h.ledger.ListTransactions(ctx, "acc-1", domain.TransactionFilter{}, 10, nil)
	require.NoError(t, err)

	started := time.Now()
	_, err = h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, IdempotencyKey: "busy-1"})
	assert.ErrorIs(t, err, apperrors.ErrLockTimeout)
	assert.Less(t, time.Since(started), 2*time.Second)

	_, err = h.account.OpenAccount(ctx, "acc-2", domain.TierFree)
	assert.ErrorIs(t, err, apperrors.ErrLockTimeout)

	close(release)
	require.NoError(t, <-done)

	charge, err := h.ledger.Charge(ctx, domain.ChargeRequest{AccountID: "acc-1", ActionType: "API_CALL", Quantity: 1, IdempotencyKey: "busy-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(95), charge.BalanceAfter)
	h.assertReconciled(t, "acc-1")
}
