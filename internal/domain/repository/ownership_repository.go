package repository

import (
	"context"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// OwnershipRepository persists per-user unit balances.
type OwnershipRepository interface {
	// Find returns a zero-balance ownership when the user never held the asset.
	Find(ctx context.Context, userID, assetID uuid.UUID) (*entity.Ownership, error)

	// FindForUpdate is Find with a row lock on an existing row.
	FindForUpdate(ctx context.Context, userID, assetID uuid.UUID) (*entity.Ownership, error)

	// ListHoldersByAsset returns rows with a positive balance ordered by user id.
	ListHoldersByAsset(ctx context.Context, assetID uuid.UUID) ([]*entity.Ownership, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Ownership, error)

	// Save inserts or updates the (user, asset) row.
	Save(ctx context.Context, ownership *entity.Ownership) error
}

// CollateralRepository persists collateral pledges.
type CollateralRepository interface {
	// FindLockedForUpdate returns nil without error when the user has no LOCKED row for the asset.
	FindLockedForUpdate(ctx context.Context, userID, assetID uuid.UUID) (*entity.Collateral, error)

	ListLockedByAsset(ctx context.Context, assetID uuid.UUID) ([]*entity.Collateral, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Collateral, error)
	Create(ctx context.Context, collateral *entity.Collateral) error
	Update(ctx context.Context, collateral *entity.Collateral) error
}
