package services

import (
	"context"
	"errors"
	"fmt"
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
	defaultListLimit = 20
	maxListLimit     = 100

	defaultCreditsPerCurrencyUnit = 1000
)

// ledgerService is the charge/refund orchestrator. Every mutation runs inside
// one account-locked unit of work: lock, price, validate, debit or credit,
// record, commit.
type ledgerService struct {
	BaseService
	ledgerRepo             portsrepo.LedgerRepositoryFacade
	accountRepo            portsrepo.AccountReader
	pricingRepo            portsrepo.PricingReader
	tiers                  domain.TierPolicies
	burst                  domain.BurstPolicy
	creditsPerCurrencyUnit int64
}

// LedgerServiceOption configures optional ledger service behaviour.
type LedgerServiceOption func(*ledgerService)

// WithTierPolicies replaces the built-in tier policy table.
func WithTierPolicies(tiers domain.TierPolicies) LedgerServiceOption {
	return func(s *ledgerService) {
		if len(tiers) > 0 {
			s.tiers = tiers
		}
	}
}

// WithBurstPolicy enables burst pricing.
func WithBurstPolicy(burst domain.BurstPolicy) LedgerServiceOption {
	return func(s *ledgerService) {
		s.burst = burst
	}
}

// WithLedgerClock pins the service clock.
func WithLedgerClock(clock Clock) LedgerServiceOption {
	return func(s *ledgerService) {
		s.Clock = clock
	}
}

// WithCreditsPerCurrencyUnit sets the purchase conversion rate.
func WithCreditsPerCurrencyUnit(rate int64) LedgerServiceOption {
	return func(s *ledgerService) {
		if rate > 0 {
			s.creditsPerCurrencyUnit = rate
		}
	}
}

// NewLedgerService creates the ledger orchestrator.
func NewLedgerService(
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	pricingRepo portsrepo.PricingReader,
	opts ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	s := &ledgerService{
		ledgerRepo:             ledgerRepo,
		accountRepo:            accountRepo,
		pricingRepo:            pricingRepo,
		tiers:                  domain.DefaultTierPolicies(),
		burst:                  domain.BurstPolicy{Mode: domain.BurstOff},
		creditsPerCurrencyUnit: defaultCreditsPerCurrencyUnit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// buildFunc mutates the locked account and returns the transaction that
// records the mutation. Common fields are filled in by post.
type buildFunc func(ctx context.Context, tx portsrepo.LedgerTx, acc *domain.Account) (domain.Transaction, error)

// replayMatch decides whether a stored transaction is the result of the same
// request as the one being retried.
type replayMatch func(existing *domain.Transaction) bool

// post runs one idempotent, account-locked ledger mutation.
func (s *ledgerService) post(ctx context.Context, accountID, idempotencyKey string, matches replayMatch, build buildFunc) (*domain.Transaction, bool, error) {
	if idempotencyKey != "" {
		existing, err := s.replay(ctx, idempotencyKey, matches)
		if err != nil || existing != nil {
			return existing, existing != nil, err
		}
	}

	var (
		result   *domain.Transaction
		replayed bool
	)
	err := s.ledgerRepo.WithAccountLock(ctx, accountID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if idempotencyKey != "" {
			existing, err := tx.FindTransactionByIdempotencyKey(ctx, idempotencyKey)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if existing != nil {
				if !matches(existing) {
					return idempotencyConflict(idempotencyKey)
				}
				result, replayed = existing, true
				return nil
			}
		}

		acc := tx.Account()
		before := acc.Spendable()
		txn, err := build(ctx, tx, &acc)
		if err != nil {
			return err
		}

		txn.TransactionID = uuid.NewString()
		txn.AccountID = acc.AccountID
		txn.BalanceBefore = before
		txn.BalanceAfter = acc.Spendable()
		txn.IdempotencyKey = domain.StringPtr(idempotencyKey)
		if txn.Status == "" {
			txn.Status = domain.StatusCompleted
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = s.Now()
		}
		acc.UpdatedAt = txn.CreatedAt

		if acc.MainBalance < 0 || acc.BonusBalance < 0 {
			return apperrors.NewAppError(apperrors.ErrInsufficientBalance, "operation would overdraw the account", nil).
				WithField("amount").
				WithDetail("available", before)
		}

		if err := tx.Apply(ctx, acc, txn); err != nil {
			return err
		}
		result = &txn
		return nil
	})
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, apperrors.ErrDuplicateIdempotencyKey) {
			// Lost an insert race on the key: the winner's row is now readable.
			existing, rerr := s.replay(ctx, idempotencyKey, matches)
			if rerr != nil {
				return nil, false, rerr
			}
			if existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}
	return result, replayed, nil
}

// replay returns the transaction already recorded under key, nil if none.
func (s *ledgerService) replay(ctx context.Context, key string, matches replayMatch) (*domain.Transaction, error) {
	existing, err := s.ledgerRepo.FindTransactionByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !matches(existing) {
		return nil, idempotencyConflict(key)
	}
	return existing, nil
}

func idempotencyConflict(key string) error {
	return apperrors.NewAppError(apperrors.ErrIdempotencyConflict, "idempotency key was used for a different request", nil).
		WithField("idempotency_key").
		WithDetail("idempotency_key", key)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func matchKind(accountID string, kind domain.TransactionKind) replayMatch {
	return func(existing *domain.Transaction) bool {
		return existing.AccountID == accountID && existing.Kind == kind
	}
}

// lookupPricing resolves an action type, mapping a miss to UnknownActionType.
func (s *ledgerService) lookupPricing(ctx context.Context, actionType string) (*domain.PricingEntry, error) {
	if actionType == "" {
		return nil, apperrors.NewAppError(apperrors.ErrUnknownActionType, "action type is required", nil).WithField("action_type")
	}
	entry, err := s.pricingRepo.FindPricingByActionType(ctx, actionType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewAppError(apperrors.ErrUnknownActionType, fmt.Sprintf("no pricing for action type %q", actionType), nil).
				WithField("action_type").
				WithDetail("action_type", actionType)
		}
		return nil, err
	}
	return entry, nil
}

type chargeCounter func(ctx context.Context, actionTypes []string, since time.Time) (int, error)

// burstModifiers derives the burst modifier from durable charge history.
func (s *ledgerService) burstModifiers(ctx context.Context, count chargeCounter, actionType string, now time.Time) (accounting.Modifiers, int, error) {
	if !s.burst.AppliesTo(actionType) {
		return accounting.Modifiers{}, 0, nil
	}
	recent, err := count(ctx, s.burst.ActionTypes, now.Add(-s.burst.Window))
	if err != nil {
		return accounting.Modifiers{}, 0, err
	}
	return accounting.Modifiers{
		BurstActive: recent >= s.burst.Threshold,
		BurstRate:   s.burst.Rate(),
	}, recent, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validateCharge(req domain.ChargeRequest, actionType string) error {
	if req.AccountID == "" {
		return apperrors.NewAppError(apperrors.ErrValidation, "account id is required", nil).WithField("account_id")
	}
	if actionType == "" {
		return apperrors.NewAppError(apperrors.ErrUnknownActionType, "action type is required", nil).WithField("action_type")
	}
	if req.Quantity < 1 {
		return apperrors.NewAppError(apperrors.ErrInvalidQuantity, "quantity must be at least 1", nil).
			WithField("quantity").
			WithDetail("quantity", req.Quantity)
	}
	if err := req.Metadata.Validate(); err != nil {
		return apperrors.NewAppError(apperrors.ErrValidation, err.Error(), nil).WithField("metadata")
	}
	return nil
}

// Charge implements the metered charge sequence.
func (s *ledgerService) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Transaction, error) {
	actionType := domain.NormalizeActionType(req.ActionType)
	logger := s.GetLogger(ctx).With(
		slog.String("account_id", req.AccountID),
		slog.String("action_type", actionType),
		slog.Int64("quantity", req.Quantity),
	)

	if err := validateCharge(req, actionType); err != nil {
		metrics.IncCharge(actionType, metrics.ResultError)
		return nil, err
	}

	matches := func(existing *domain.Transaction) bool {
		quantity, _ := existing.Metadata.Int("quantity")
		return existing.AccountID == req.AccountID &&
			existing.Kind == domain.KindCharge &&
			existing.ActionType != nil && *existing.ActionType == actionType &&
			quantity == req.Quantity &&
			derefString(existing.ReferenceID) == req.ReferenceID
	}
	if req.IdempotencyKey != "" {
		existing, err := s.replay(ctx, req.IdempotencyKey, matches)
		if err != nil {
			metrics.IncCharge(actionType, metrics.ResultError)
			return nil, err
		}
		if existing != nil {
			logger.Info("Charge replayed from idempotency key", slog.String("transaction_id", existing.TransactionID))
			metrics.IncCharge(actionType, metrics.ResultReplay)
			return existing, nil
		}
	}

	entry, err := s.lookupPricing(ctx, actionType)
	if err != nil {
		metrics.IncCharge(actionType, metrics.ResultError)
		return nil, err
	}

	txn, replayed, err := s.post(ctx, req.AccountID, req.IdempotencyKey, matches,
		func(ctx context.Context, tx portsrepo.LedgerTx, acc *domain.Account) (domain.Transaction, error) {
			now := s.Now()
			policy := s.tiers.Policy(acc.Tier)

			if policy.DailyChargeLimit > 0 {
				today, err := tx.CountChargesSince(ctx, nil, startOfDay(now))
				if err != nil {
					return domain.Transaction{}, err
				}
				if int64(today) >= policy.DailyChargeLimit {
					return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrUsageLimitExceeded, "daily charge limit reached", nil).
						WithDetail("limit", policy.DailyChargeLimit).
						WithDetail("tier", string(acc.Tier))
				}
			}

			mods, recent, err := s.burstModifiers(ctx, tx.CountChargesSince, actionType, now)
			if err != nil {
				return domain.Transaction{}, err
			}

			breakdown, err := accounting.CalculateCost(*entry, req.Quantity, policy.DiscountRate, mods)
			if err != nil {
				return domain.Transaction{}, err
			}

			if !acc.HasSufficientBalance(breakdown.Cost) {
				return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrInsufficientBalance,
					fmt.Sprintf("charge of %d credits exceeds available balance of %d", breakdown.Cost, acc.Spendable()), nil).
					WithField("quantity").
					WithDetail("required", breakdown.Cost).
					WithDetail("available", acc.Spendable())
			}

			if req.ReferenceID != "" {
				exists, err := tx.ReferenceExists(ctx, req.ReferenceID)
				if err != nil {
					return domain.Transaction{}, err
				}
				if exists {
					return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrDuplicateReference,
						"reference id already used for this account", nil).
						WithField("reference_id").
						WithDetail("reference_id", req.ReferenceID)
				}
			}

			bonusUsed, mainUsed := acc.Debit(breakdown.Cost)

			description := req.Description
			if description == "" {
				description = fmt.Sprintf("%s x%d", actionType, req.Quantity)
			}
			return domain.Transaction{
				Amount:      -breakdown.Cost,
				Kind:        domain.KindCharge,
				Description: description,
				ActionType:  domain.StringPtr(actionType),
				ReferenceID: domain.StringPtr(req.ReferenceID),
				Metadata: req.Metadata.Merge(domain.Metadata{
					"quantity":      req.Quantity,
					"buckets":       breakdown.Buckets,
					"discount_rate": breakdown.DiscountRate.String(),
					"burst_applied": breakdown.BurstApplied,
					"recent_calls":  recent,
					"bonus_used":    bonusUsed,
					"main_used":     mainUsed,
				}),
				CreatedAt: now,
			}, nil
		})
	if err != nil {
		metrics.IncCharge(actionType, metrics.ResultError)
		switch apperrors.Kind(err) {
		case apperrors.ErrStoreFailure, nil:
			s.LogError(ctx, err, "Charge failed", slog.String("account_id", req.AccountID), slog.String("action_type", actionType))
		default:
			logger.Warn("Charge rejected", slog.String("error", err.Error()))
		}
		return nil, err
	}

	if replayed {
		metrics.IncCharge(actionType, metrics.ResultReplay)
		logger.Info("Charge replayed from idempotency key", slog.String("transaction_id", txn.TransactionID))
		return txn, nil
	}
	metrics.IncCharge(actionType, metrics.ResultSuccess)
	metrics.AddCreditsMoved(string(txn.Kind), txn.Amount)
	logger.Info("Charge recorded",
		slog.String("transaction_id", txn.TransactionID),
		slog.Int64("cost", -txn.Amount),
		slog.Int64("balance_after", txn.BalanceAfter),
	)
	return txn, nil
}

// EstimateCost prices an action for an account without taking the lock.
func (s *ledgerService) EstimateCost(ctx context.Context, accountID, actionType string, quantity int64) (*domain.CostBreakdown, error) {
	actionType = domain.NormalizeActionType(actionType)
	if quantity < 1 {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidQuantity, "quantity must be at least 1", nil).
			WithField("quantity").
			WithDetail("quantity", quantity)
	}

	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	entry, err := s.lookupPricing(ctx, actionType)
	if err != nil {
		return nil, err
	}

	count := func(ctx context.Context, actionTypes []string, since time.Time) (int, error) {
		return s.ledgerRepo.CountCharges(ctx, accountID, actionTypes, since)
	}
	mods, _, err := s.burstModifiers(ctx, count, actionType, s.Now())
	if err != nil {
		return nil, err
	}

	breakdown, err := accounting.CalculateCost(*entry, quantity, s.tiers.Policy(acc.Tier).DiscountRate, mods)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// Refund reverses a CHARGE or PURCHASE exactly once.
func (s *ledgerService) Refund(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	logger := s.GetLogger(ctx).With(slog.String("original_transaction_id", transactionID))

	original, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		metrics.IncRefund(metrics.ResultError)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, transactionNotFound(transactionID)
		}
		return nil, err
	}
	if !original.Kind.IsRefundable() {
		metrics.IncRefund(metrics.ResultError)
		return nil, apperrors.NewAppError(apperrors.ErrNotRefundable, fmt.Sprintf("%s transactions cannot be refunded", original.Kind), nil).
			WithField("transaction_id").
			WithDetail("kind", string(original.Kind))
	}
	if reason == "" {
		reason = "refund"
	}

	refund, _, err := s.post(ctx, original.AccountID, "", nil,
		func(ctx context.Context, tx portsrepo.LedgerTx, acc *domain.Account) (domain.Transaction, error) {
			current, err := tx.FindTransactionForUpdate(ctx, transactionID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return domain.Transaction{}, transactionNotFound(transactionID)
				}
				return domain.Transaction{}, err
			}
			switch current.Status {
			case domain.StatusRefunded:
				return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrAlreadyRefunded, "transaction was already refunded", nil).
					WithField("transaction_id").
					WithDetail("transaction_id", transactionID)
			case domain.StatusFailed:
				return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrNotRefundable, "failed transactions have no effect to reverse", nil).
					WithField("transaction_id")
			}

			metadata := domain.Metadata{
				"original_transaction_id": transactionID,
				"refund_reason":           reason,
			}
			var amount int64
			switch current.Kind {
			case domain.KindCharge:
				amount = -current.Amount
				bonusUsed, _ := current.Metadata.Int("bonus_used")
				bonusBack := min(max(bonusUsed, 0), amount)
				acc.CreditBonus(bonusBack)
				acc.Credit(amount - bonusBack)
				metadata["bonus_restored"] = bonusBack
				metadata["main_restored"] = amount - bonusBack
			case domain.KindPurchase:
				if acc.MainBalance < current.Amount {
					return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrInsufficientBalance,
						"purchased credits were already spent", nil).
						WithField("transaction_id").
						WithDetail("required", current.Amount).
						WithDetail("available", acc.MainBalance)
				}
				amount = -current.Amount
				acc.MainBalance += amount
			}

			if err := tx.MarkTransactionRefunded(ctx, transactionID); err != nil {
				return domain.Transaction{}, err
			}
			return domain.Transaction{
				Amount:               amount,
				Kind:                 domain.KindRefund,
				Description:          "Refund: " + reason,
				ActionType:           current.ActionType,
				Metadata:             metadata,
				RelatedTransactionID: domain.StringPtr(transactionID),
			}, nil
		})
	if err != nil {
		metrics.IncRefund(metrics.ResultError)
		if apperrors.Kind(err) == apperrors.ErrStoreFailure || apperrors.Kind(err) == nil {
			s.LogError(ctx, err, "Refund failed", slog.String("original_transaction_id", transactionID))
		} else {
			logger.Warn("Refund rejected", slog.String("error", err.Error()))
		}
		return nil, err
	}

	metrics.IncRefund(metrics.ResultSuccess)
	metrics.AddCreditsMoved(string(refund.Kind), refund.Amount)
	logger.Info("Refund recorded",
		slog.String("transaction_id", refund.TransactionID),
		slog.String("account_id", refund.AccountID),
		slog.Int64("amount", refund.Amount),
	)
	return refund, nil
}

func balanceCapExceeded(acc *domain.Account, amount int64) error {
	return apperrors.NewAppError(apperrors.ErrInvalidAmount,
		fmt.Sprintf("credit of %d would take the balance above %d", amount, domain.MaxBalance), nil).
		WithField("amount").
		WithDetail("available_headroom", domain.MaxBalance-acc.Spendable())
}

func transactionNotFound(transactionID string) error {
	return apperrors.NewAppError(apperrors.ErrTransactionNotFound, fmt.Sprintf("transaction %q not found", transactionID), nil).
		WithField("transaction_id")
}

// AdminAdjust applies a privileged signed change to the main balance.
func (s *ledgerService) AdminAdjust(ctx context.Context, req domain.AdjustmentRequest) (*domain.Transaction, error) {
	if req.Amount == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidAmount, "adjustment amount must be non-zero", nil).WithField("amount")
	}
	if req.Reason == "" {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, "adjustment reason is required", nil).WithField("reason")
	}

	txn, replayed, err := s.post(ctx, req.AccountID, req.IdempotencyKey, matchKind(req.AccountID, domain.KindAdminAdjustment),
		func(ctx context.Context, tx portsrepo.LedgerTx, acc *domain.Account) (domain.Transaction, error) {
			if req.Amount < 0 && acc.MainBalance < -req.Amount {
				return domain.Transaction{}, apperrors.NewAppError(apperrors.ErrInsufficientBalance,
					"adjustment would make the main balance negative", nil).
					WithField("amount").
					WithDetail("required", -req.Amount).
					WithDetail("available", acc.MainBalance)
			}
			if req.Amount > 0 && !acc.CanCredit(req.Amount) {
				return domain.Transaction{}, balanceCapExceeded(acc, req.Amount)
			}
			acc.MainBalance += req.Amount
			return domain.Transaction{
				Amount:      req.Amount,
				Kind:        domain.KindAdminAdjustment,
				Description: req.Reason,
				Metadata: domain.Metadata{
					"reason":   req.Reason,
					"actor_id": req.ActorID,
				},
			}, nil
		})
	if err != nil {
		s.LogWarn(ctx, err, "Admin adjustment failed", slog.String("account_id", req.AccountID), slog.Int64("amount", req.Amount))
		return nil, err
	}
	if !replayed {
		metrics.AddCreditsMoved(string(txn.Kind), txn.Amount)
		s.LogInfo(ctx, "Admin adjustment recorded",
			slog.String("account_id", req.AccountID),
			slog.String("actor_id", req.ActorID),
			slog.Int64("amount", req.Amount),
			slog.String("transaction_id", txn.TransactionID))
	}
	return txn, nil
}

// GrantBonus credits the bonus balance.
func (s *ledgerService) GrantBonus(ctx context.Context, req domain.BonusGrant) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidAmount, "bonus amount must be positive", nil).WithField("amount")
	}
	reason := req.Reason
	if reason == "" {
		reason = "bonus"
	}

	txn, replayed, err := s.post(ctx, req.AccountID, req.IdempotencyKey, matchKind(req.AccountID, domain.KindBonus),
		func(ctx context.Context, tx portsrepo.LedgerTx, acc *domain.Account) (domain.Transaction, error) {
			if !acc.CanCredit(req.Amount) {
				return domain.Transaction{}, balanceCapExceeded(acc, req.Amount)
			}
			acc.CreditBonus(req.Amount)
			return domain.Transaction{
				Amount:      req.Amount,
				Kind:        domain.KindBonus,
				Description: reason,
				Metadata:    domain.Metadata{"reason": reason},
			}, nil
		})
	if err != nil {
		s.LogWarn(ctx, err, "Bonus grant failed", slog.String("account_id", req.AccountID))
		return nil, err
	}
	if !replayed {
		metrics.AddCreditsMoved(string(txn.Kind), txn.Amount)
		s.LogInfo(ctx, "Bonus granted", slog.String("account_id", req.AccountID), slog.Int64("amount", req.Amount))
	}
	return txn, nil
}

// RecordPurchase books a payment the external payment authority has already
// decided on. A failed payment is recorded as a FAILED transaction with no
// balance effect.
func (s *ledgerService) RecordPurchase(ctx context.Context, accountID string, receipt domain.PaymentReceipt, idempotencyKey string) (*domain.Transaction, error) {
	if receipt.Provider == "" || receipt.PaymentID == "" {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, "payment provider and payment id are required", nil).WithField("payment_id")
	}
	if receipt.Status != domain.PaymentSucceeded && receipt.Status != domain.PaymentFailed {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, "payment status must be succeeded or failed", nil).WithField("status")
	}
	credits, err := accounting.CreditsForPayment(receipt.Amount, s.creditsPerCurrencyUnit)
	if err != nil {
		return nil, err
	}
	// A failed attempt must not block a later successful one for the same
	// payment, so failures are keyed and referenced separately.
	failed := receipt.Status == domain.PaymentFailed
	reference := receipt.Provider + ":" + receipt.PaymentID
	if failed {
		reference += ":failed"
	}
	if idempotencyKey == "" {
		idempotencyKey = "purchase:" + reference
	}
	matches := func(existing *domain.Transaction) bool {
		return existing.AccountID == accountID &&
			existing.Kind == domain.KindPurchase &&
			(existing.Status == domain.StatusFailed) == failed &&
			derefString(existing.ReferenceID) == reference
	}

	txn, replayed, err := s.post(ctx, accountID, idempotencyKey, matches,
		func(ctx context.Context, tx portsrepo.LedgerTx, acc *domain.Account) (domain.Transaction, error) {
			status := domain.StatusCompleted
			description := fmt.Sprintf("Purchase of %d credits", credits)
			if failed {
				status = domain.StatusFailed
				description = "Failed purchase"
			} else {
				if !acc.CanCredit(credits) {
					return domain.Transaction{}, balanceCapExceeded(acc, credits)
				}
				acc.Credit(credits)
			}
			return domain.Transaction{
				Amount:      credits,
				Kind:        domain.KindPurchase,
				Status:      status,
				Description: description,
				ReferenceID: domain.StringPtr(reference),
				Metadata: domain.Metadata{
					"currency":        receipt.Currency,
					"original_amount": receipt.Amount,
					"payment_id":      receipt.PaymentID,
					"provider":        receipt.Provider,
				},
			}, nil
		})
	if err != nil {
		s.LogWarn(ctx, err, "Purchase recording failed", slog.String("account_id", accountID), slog.String("payment_id", receipt.PaymentID))
		return nil, err
	}
	if !replayed && txn.Status == domain.StatusCompleted {
		metrics.AddCreditsMoved(string(txn.Kind), txn.Amount)
	}
	s.LogInfo(ctx, "Purchase recorded",
		slog.String("account_id", accountID),
		slog.String("payment_id", receipt.PaymentID),
		slog.String("status", string(txn.Status)),
		slog.Bool("replayed", replayed))
	return txn, nil
}

// GetTransaction returns one transaction. When accountID is set the
// transaction must belong to that account.
func (s *ledgerService) GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, transactionNotFound(transactionID)
		}
		return nil, err
	}
	if accountID != "" && txn.AccountID != accountID {
		return nil, transactionNotFound(transactionID)
	}
	return txn, nil
}

// ListTransactions returns an account's history newest first.
func (s *ledgerService) ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if filter.Kind != nil && !filter.Kind.IsValid() {
		return nil, nil, apperrors.NewAppError(apperrors.ErrValidation, "unknown transaction kind", nil).WithField("kind")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, nil, apperrors.NewAppError(apperrors.ErrValidation, "unknown transaction status", nil).WithField("status")
	}
	if filter.ActionType != nil {
		normalized := domain.NormalizeActionType(*filter.ActionType)
		filter.ActionType = &normalized
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, nil, err
	}
	return s.ledgerRepo.ListTransactions(ctx, accountID, filter, limit, nextToken)
}
