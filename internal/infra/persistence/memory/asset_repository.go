package memory

import (
	"context"
	"slices"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
)

type assetRepository struct {
	v view
}

func (repo *assetRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Asset, error) {
	var found *entity.Asset
	err := repo.v.read(func(st *state) error {
		asset, ok := st.assets[id]
		if !ok {
			return domainerrors.ErrAssetNotFound
		}
		found = &asset

		return nil
	})

	return found, err
}

func (repo *assetRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Asset, error) {
	return repo.FindByID(ctx, id)
}

func (repo *assetRepository) List(_ context.Context, filter repository.AssetFilter) ([]*entity.Asset, error) {
	var assets []*entity.Asset
	err := repo.v.read(func(st *state) error {
		for _, asset := range st.assets {
			if filter.Status != "" && asset.Status != filter.Status {
				continue
			}
			if filter.OwnerID != uuid.Nil && asset.OwnerID != filter.OwnerID {
				continue
			}
			assets = append(assets, &asset)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(assets, func(a, b *entity.Asset) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return compareUUID(a.ID, b.ID)
	})

	return page(assets, filter.Page), nil
}

func (repo *assetRepository) Create(_ context.Context, asset *entity.Asset) error {
	return repo.v.write(func(st *state) error {
		if _, ok := st.users[asset.OwnerID]; !ok {
			return domainerrors.ErrUserNotFound.WrapMessage("asset owner does not exist")
		}
		if _, ok := st.assets[asset.ID]; ok {
			return domainerrors.ErrConflict.WrapMessage("asset already exists")
		}

		now := repo.v.now()
		asset.CreatedAt = now
		asset.UpdatedAt = now
		st.assets[asset.ID] = *asset

		return nil
	})
}

func (repo *assetRepository) Update(_ context.Context, asset *entity.Asset) error {
	return repo.v.write(func(st *state) error {
		existing, ok := st.assets[asset.ID]
		if !ok {
			return domainerrors.ErrAssetNotFound
		}
		if asset.UnallocatedUnits < 0 || asset.TotalUnits < 0 {
			return domainerrors.ErrInsufficientSupply.WrapMessage("unallocated units would become negative")
		}

		asset.CreatedAt = existing.CreatedAt
		asset.UpdatedAt = repo.v.now()
		st.assets[asset.ID] = *asset

		return nil
	})
}
