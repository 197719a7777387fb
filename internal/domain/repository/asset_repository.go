package repository

import (
	"context"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// AssetFilter narrows asset listings. Zero values match everything.
type AssetFilter struct {
	Status  entity.AssetStatus
	OwnerID uuid.UUID
	Page    Pagination
}

// AssetRepository persists assets.
type AssetRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Asset, error)

	// FindByIDForUpdate locks the asset row until the surrounding transaction ends.
	// The asset row guards the unallocated supply counter.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Asset, error)

	List(ctx context.Context, filter AssetFilter) ([]*entity.Asset, error)
	Create(ctx context.Context, asset *entity.Asset) error
	Update(ctx context.Context, asset *entity.Asset) error
}
