package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/credit_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
)

type pricingService struct {
	BaseService
	pricingRepo portsrepo.PricingRepositoryFacade
}

// NewPricingService creates a new pricing service.
func NewPricingService(repo portsrepo.PricingRepositoryFacade) portssvc.PricingSvcFacade {
	return &pricingService{pricingRepo: repo}
}

var _ portssvc.PricingSvcFacade = (*pricingService)(nil)

func (s *pricingService) ListPricing(ctx context.Context) ([]domain.PricingEntry, error) {
	entries, err := s.pricingRepo.ListPricing(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pricing")
		return nil, err
	}
	return entries, nil
}

func (s *pricingService) GetPricing(ctx context.Context, actionType string) (*domain.PricingEntry, error) {
	actionType = domain.NormalizeActionType(actionType)
	entry, err := s.pricingRepo.FindPricingByActionType(ctx, actionType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewAppError(apperrors.ErrUnknownActionType, fmt.Sprintf("no pricing for action type %q", actionType), nil).
				WithField("action_type")
		}
		return nil, err
	}
	return entry, nil
}

// validatePricing normalizes entry and checks the pricing invariants.
func validatePricing(entry *domain.PricingEntry) error {
	entry.ActionType = domain.NormalizeActionType(entry.ActionType)
	switch {
	case entry.ActionType == "":
		return apperrors.NewAppError(apperrors.ErrValidation, "action type is required", nil).WithField("action_type")
	case entry.UnitSize < 1:
		return apperrors.NewAppError(apperrors.ErrValidation, "unit size must be at least 1", nil).WithField("unit_size")
	case entry.BaseCost < 0:
		return apperrors.NewAppError(apperrors.ErrValidation, "base cost must not be negative", nil).WithField("base_cost")
	case entry.MinimumCharge < 0:
		return apperrors.NewAppError(apperrors.ErrValidation, "minimum charge must not be negative", nil).WithField("minimum_charge")
	}
	if entry.Unit == "" {
		entry.Unit = "per_request"
	}
	return nil
}

func (s *pricingService) UpsertPricing(ctx context.Context, entry domain.PricingEntry) (*domain.PricingEntry, error) {
	if err := validatePricing(&entry); err != nil {
		return nil, err
	}
	entry.UpdatedAt = s.Now()
	if err := s.pricingRepo.UpsertPricing(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to upsert pricing", slog.String("action_type", entry.ActionType))
		return nil, err
	}
	s.LogInfo(ctx, "Pricing updated",
		slog.String("action_type", entry.ActionType),
		slog.Int64("base_cost", entry.BaseCost),
		slog.Int64("unit_size", entry.UnitSize))
	return &entry, nil
}

// SeedPricing loads a catalog. Existing rows are kept unless force is set.
func (s *pricingService) SeedPricing(ctx context.Context, entries []domain.PricingEntry, force bool) (int, error) {
	written := 0
	now := s.Now()
	for _, entry := range entries {
		if err := validatePricing(&entry); err != nil {
			return written, err
		}
		entry.UpdatedAt = now
		if force {
			if err := s.pricingRepo.UpsertPricing(ctx, entry); err != nil {
				return written, err
			}
			written++
			continue
		}
		inserted, err := s.pricingRepo.InsertPricingIfMissing(ctx, entry)
		if err != nil {
			return written, err
		}
		if inserted {
			written++
		}
	}
	s.LogInfo(ctx, "Pricing seeded", slog.Int("entries", len(entries)), slog.Int("written", written), slog.Bool("force", force))
	return written, nil
}
