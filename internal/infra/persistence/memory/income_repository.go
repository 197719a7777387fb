package memory

import (
	"cmp"
	"context"
	"slices"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
)

type rentalIncomeRepository struct {
	v view
}

func (repo *rentalIncomeRepository) Create(_ context.Context, income *entity.RentalIncome) error {
	return repo.v.write(func(st *state) error {
		for _, existing := range st.incomes {
			if existing.AssetID == income.AssetID && existing.Period == income.Period {
				return domainerrors.ErrIncomeAlreadyRecorded
			}
		}

		now := repo.v.now()
		income.CreatedAt = now
		income.UpdatedAt = now
		st.incomes[income.ID] = *income

		return nil
	})
}

func (repo *rentalIncomeRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.RentalIncome, error) {
	var found *entity.RentalIncome
	err := repo.v.read(func(st *state) error {
		income, ok := st.incomes[id]
		if !ok {
			return domainerrors.ErrIncomeNotFound
		}
		found = &income

		return nil
	})

	return found, err
}

func (repo *rentalIncomeRepository) ListPendingAssetIDs(_ context.Context) ([]uuid.UUID, error) {
	var assetIDs []uuid.UUID
	err := repo.v.read(func(st *state) error {
		for _, income := range st.incomes {
			if income.Status == entity.IncomeStatusPending && !slices.Contains(assetIDs, income.AssetID) {
				assetIDs = append(assetIDs, income.AssetID)
			}
		}

		return nil
	})
	slices.SortFunc(assetIDs, compareUUID)

	return assetIDs, err
}

func (repo *rentalIncomeRepository) ListPendingByAssetForUpdate(_ context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error) {
	rows, err := repo.list(func(i entity.RentalIncome) bool {
		return i.AssetID == assetID && i.Status == entity.IncomeStatusPending
	})
	slices.SortFunc(rows, func(a, b *entity.RentalIncome) int {
		return cmp.Or(cmp.Compare(a.Period, b.Period), a.CreatedAt.Compare(b.CreatedAt))
	})

	return rows, err
}

func (repo *rentalIncomeRepository) ListByAsset(_ context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error) {
	rows, err := repo.list(func(i entity.RentalIncome) bool { return i.AssetID == assetID })
	slices.SortFunc(rows, func(a, b *entity.RentalIncome) int { return cmp.Compare(b.Period, a.Period) })

	return rows, err
}

func (repo *rentalIncomeRepository) list(match func(entity.RentalIncome) bool) ([]*entity.RentalIncome, error) {
	var rows []*entity.RentalIncome
	err := repo.v.read(func(st *state) error {
		for _, income := range st.incomes {
			if match(income) {
				rows = append(rows, &income)
			}
		}

		return nil
	})

	return rows, err
}

func (repo *rentalIncomeRepository) Update(_ context.Context, income *entity.RentalIncome) error {
	return repo.v.write(func(st *state) error {
		existing, ok := st.incomes[income.ID]
		if !ok {
			return domainerrors.ErrIncomeNotFound
		}

		income.CreatedAt = existing.CreatedAt
		income.UpdatedAt = repo.v.now()
		st.incomes[income.ID] = *income

		return nil
	})
}

type yieldRepository struct {
	v view
}

func (repo *yieldRepository) Exists(_ context.Context, rentalIncomeID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := repo.v.read(func(st *state) error {
		_, exists = st.yields[yieldKey{incomeID: rentalIncomeID, userID: userID}]

		return nil
	})

	return exists, err
}

func (repo *yieldRepository) Create(_ context.Context, distribution *entity.YieldDistribution) error {
	return repo.v.write(func(st *state) error {
		key := yieldKey{incomeID: distribution.RentalIncomeID, userID: distribution.UserID}
		if _, ok := st.yields[key]; ok {
			return domainerrors.ErrDistributionAlreadyApplied
		}

		distribution.CreatedAt = repo.v.now()
		st.yields[key] = *distribution

		return nil
	})
}

func (repo *yieldRepository) ListByUser(_ context.Context, userID uuid.UUID, p repository.Pagination) ([]*entity.YieldDistribution, error) {
	rows, err := repo.list(func(d entity.YieldDistribution) bool { return d.UserID == userID })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rows, func(a, b *entity.YieldDistribution) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return page(rows, p), nil
}

func (repo *yieldRepository) ListByIncome(_ context.Context, rentalIncomeID uuid.UUID) ([]*entity.YieldDistribution, error) {
	rows, err := repo.list(func(d entity.YieldDistribution) bool { return d.RentalIncomeID == rentalIncomeID })
	slices.SortFunc(rows, func(a, b *entity.YieldDistribution) int { return compareUUID(a.UserID, b.UserID) })

	return rows, err
}

func (repo *yieldRepository) list(match func(entity.YieldDistribution) bool) ([]*entity.YieldDistribution, error) {
	var rows []*entity.YieldDistribution
	err := repo.v.read(func(st *state) error {
		for _, d := range st.yields {
			if match(d) {
				rows = append(rows, &d)
			}
		}

		return nil
	})

	return rows, err
}
