package repository

import (
	"context"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// RentalIncomeRepository persists rental income records.
type RentalIncomeRepository interface {
	// Create returns domainerrors.ErrIncomeAlreadyRecorded when the period is taken.
	Create(ctx context.Context, income *entity.RentalIncome) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.RentalIncome, error)

	// ListPendingAssetIDs returns the distinct assets with PENDING income, ordered by id.
	ListPendingAssetIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListPendingByAssetForUpdate locks and returns PENDING rows oldest first.
	ListPendingByAssetForUpdate(ctx context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error)

	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error)
	Update(ctx context.Context, income *entity.RentalIncome) error
}

// YieldDistributionRepository persists the proof of each holder payout.
type YieldDistributionRepository interface {
	Exists(ctx context.Context, rentalIncomeID, userID uuid.UUID) (bool, error)

	// Create returns domainerrors.ErrDistributionAlreadyApplied on a duplicate (income, user).
	Create(ctx context.Context, distribution *entity.YieldDistribution) error

	ListByUser(ctx context.Context, userID uuid.UUID, page Pagination) ([]*entity.YieldDistribution, error)
	ListByIncome(ctx context.Context, rentalIncomeID uuid.UUID) ([]*entity.YieldDistribution, error)
}
