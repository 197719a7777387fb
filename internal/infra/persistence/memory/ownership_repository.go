package memory

import (
	"context"
	"slices"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"

	"github.com/google/uuid"
)

type ownershipRepository struct {
	v view
}

func (repo *ownershipRepository) Find(_ context.Context, userID, assetID uuid.UUID) (*entity.Ownership, error) {
	var found *entity.Ownership
	err := repo.v.read(func(st *state) error {
		ownership, ok := st.ownerships[ownershipKey{userID: userID, assetID: assetID}]
		if !ok {
			ownership = entity.Ownership{UserID: userID, AssetID: assetID}
		}
		found = &ownership

		return nil
	})

	return found, err
}

func (repo *ownershipRepository) FindForUpdate(ctx context.Context, userID, assetID uuid.UUID) (*entity.Ownership, error) {
	return repo.Find(ctx, userID, assetID)
}

func (repo *ownershipRepository) ListHoldersByAsset(_ context.Context, assetID uuid.UUID) ([]*entity.Ownership, error) {
	return repo.list(func(o entity.Ownership) bool { return o.AssetID == assetID }, func(a, b *entity.Ownership) int {
		return compareUUID(a.UserID, b.UserID)
	})
}

func (repo *ownershipRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Ownership, error) {
	return repo.list(func(o entity.Ownership) bool { return o.UserID == userID }, func(a, b *entity.Ownership) int {
		return compareUUID(a.AssetID, b.AssetID)
	})
}

func (repo *ownershipRepository) list(match func(entity.Ownership) bool, order func(a, b *entity.Ownership) int) ([]*entity.Ownership, error) {
	var rows []*entity.Ownership
	err := repo.v.read(func(st *state) error {
		for _, ownership := range st.ownerships {
			if ownership.Balance > 0 && match(ownership) {
				rows = append(rows, &ownership)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rows, order)

	return rows, nil
}

func (repo *ownershipRepository) Save(_ context.Context, ownership *entity.Ownership) error {
	return repo.v.write(func(st *state) error {
		if ownership.Balance < 0 {
			return domainerrors.ErrInsufficientUnits
		}

		ownership.UpdatedAt = repo.v.now()
		st.ownerships[ownershipKey{userID: ownership.UserID, assetID: ownership.AssetID}] = *ownership

		return nil
	})
}

type collateralRepository struct {
	v view
}

func (repo *collateralRepository) FindLockedForUpdate(_ context.Context, userID, assetID uuid.UUID) (*entity.Collateral, error) {
	var found *entity.Collateral
	err := repo.v.read(func(st *state) error {
		for _, collateral := range st.collaterals {
			if collateral.UserID == userID && collateral.AssetID == assetID &&
				collateral.Status == entity.CollateralStatusLocked {
				found = &collateral

				return nil
			}
		}

		return nil
	})

	return found, err
}

func (repo *collateralRepository) ListLockedByAsset(_ context.Context, assetID uuid.UUID) ([]*entity.Collateral, error) {
	rows, err := repo.list(func(c entity.Collateral) bool {
		return c.AssetID == assetID && c.Status == entity.CollateralStatusLocked
	})
	slices.SortFunc(rows, func(a, b *entity.Collateral) int { return compareUUID(a.UserID, b.UserID) })

	return rows, err
}

func (repo *collateralRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Collateral, error) {
	rows, err := repo.list(func(c entity.Collateral) bool { return c.UserID == userID })
	slices.SortFunc(rows, func(a, b *entity.Collateral) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return rows, err
}

func (repo *collateralRepository) list(match func(entity.Collateral) bool) ([]*entity.Collateral, error) {
	var rows []*entity.Collateral
	err := repo.v.read(func(st *state) error {
		for _, collateral := range st.collaterals {
			if match(collateral) {
				rows = append(rows, &collateral)
			}
		}

		return nil
	})

	return rows, err
}

func (repo *collateralRepository) Create(_ context.Context, collateral *entity.Collateral) error {
	return repo.v.write(func(st *state) error {
		for _, existing := range st.collaterals {
			if existing.UserID == collateral.UserID && existing.AssetID == collateral.AssetID &&
				existing.Status == entity.CollateralStatusLocked && collateral.Status == entity.CollateralStatusLocked {
				return domainerrors.ErrConflict.WrapMessage("collateral already locked for asset")
			}
		}

		now := repo.v.now()
		collateral.CreatedAt = now
		collateral.UpdatedAt = now
		st.collaterals[collateral.ID] = *collateral

		return nil
	})
}

func (repo *collateralRepository) Update(_ context.Context, collateral *entity.Collateral) error {
	return repo.v.write(func(st *state) error {
		existing, ok := st.collaterals[collateral.ID]
		if !ok {
			return domainerrors.ErrCollateralNotFound
		}

		collateral.CreatedAt = existing.CreatedAt
		collateral.UpdatedAt = repo.v.now()
		st.collaterals[collateral.ID] = *collateral

		return nil
	})
}
