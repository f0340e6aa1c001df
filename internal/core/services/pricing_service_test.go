package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPricingService_UpsertNormalizes(t *testing.T) {
	repo := new(MockPricingRepository)
	repo.On("UpsertPricing", mock.Anything, mock.MatchedBy(func(e domain.PricingEntry) bool {
		return e.ActionType == "EXPORT_PDF" && e.Unit == "per_request" && !e.UpdatedAt.IsZero()
	})).Return(nil).Once()
	svc := services.NewPricingService(repo)

	entry, err := svc.UpsertPricing(context.Background(), domain.PricingEntry{ActionType: " export_pdf", UnitSize: 1, BaseCost: 12})

	require.NoError(t, err)
	assert.Equal(t, "EXPORT_PDF", entry.ActionType)
	repo.AssertExpectations(t)
}

func TestPricingService_UpsertRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.PricingEntry
		field string
	}{
		{name: "no action", entry: domain.PricingEntry{UnitSize: 1}, field: "action_type"},
		{name: "zero unit size", entry: domain.PricingEntry{ActionType: "A", UnitSize: 0}, field: "unit_size"},
		{name: "negative cost", entry: domain.PricingEntry{ActionType: "A", UnitSize: 1, BaseCost: -1}, field: "base_cost"},
		{name: "negative minimum", entry: domain.PricingEntry{ActionType: "A", UnitSize: 1, MinimumCharge: -1}, field: "minimum_charge"},
	}
	svc := services.NewPricingService(new(MockPricingRepository))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertPricing(context.Background(), tt.entry)
			require.ErrorIs(t, err, apperrors.ErrValidation)
			appErr, ok := apperrors.Details(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestPricingService_GetUnknown(t *testing.T) {
	repo := new(MockPricingRepository)
	repo.On("FindPricingByActionType", mock.Anything, "NOPE").Return(nil, apperrors.ErrNotFound).Once()

	_, err := services.NewPricingService(repo).GetPricing(context.Background(), "nope")

	assert.ErrorIs(t, err, apperrors.ErrUnknownActionType)
}

func TestPricingService_SeedKeepsExistingRows(t *testing.T) {
	repo := new(MockPricingRepository)
	repo.On("InsertPricingIfMissing", mock.Anything, mock.MatchedBy(func(e domain.PricingEntry) bool { return e.ActionType == "API_CALL" })).
		Return(false, nil).Once()
	repo.On("InsertPricingIfMissing", mock.Anything, mock.MatchedBy(func(e domain.PricingEntry) bool { return e.ActionType == "NEW_ACTION" })).
		Return(true, nil).Once()

	written, err := services.NewPricingService(repo).SeedPricing(context.Background(), []domain.PricingEntry{
		{ActionType: "api_call", UnitSize: 1, BaseCost: 5, MinimumCharge: 1},
		{ActionType: "new_action", UnitSize: 1, BaseCost: 2},
	}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, written)
	repo.AssertNotCalled(t, "UpsertPricing", mock.Anything, mock.Anything)
}

func TestPricingService_SeedForceOverwrites(t *testing.T) {
	repo := new(MockPricingRepository)
	repo.On("UpsertPricing", mock.Anything, mock.Anything).Return(nil).Twice()

	written, err := services.NewPricingService(repo).SeedPricing(context.Background(), []domain.PricingEntry{
		{ActionType: "A", UnitSize: 1},
		{ActionType: "B", UnitSize: 1},
	}, true)

	require.NoError(t, err)
	assert.Equal(t, 2, written)
}
