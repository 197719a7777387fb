package postgres

import (
	"context"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type rentalIncomeRepository struct {
	db *gorm.DB
}

// NewRentalIncomeRepository is the constructor for rentalIncomeRepository.
func NewRentalIncomeRepository(db *gorm.DB) repository.RentalIncomeRepository {
	return &rentalIncomeRepository{db: db}
}

func (repo *rentalIncomeRepository) Create(ctx context.Context, income *entity.RentalIncome) error {
	incomeM := fromIncomeDomain(income)

	if err := repo.db.WithContext(ctx).Create(incomeM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrIncomeAlreadyRecorded
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create rental income")
	}

	income.CreatedAt = incomeM.CreatedAt
	income.UpdatedAt = incomeM.UpdatedAt

	return nil
}

func (repo *rentalIncomeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RentalIncome, error) {
	var incomeM model.RentalIncomeModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&incomeM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrIncomeNotFound
		}

		return nil, errors.Wrap(err, "failed to find rental income by id")
	}

	return toIncomeDomain(&incomeM), nil
}

func (repo *rentalIncomeRepository) ListPendingAssetIDs(ctx context.Context) ([]uuid.UUID, error) {
	var assetIDs []uuid.UUID
	if err := repo.db.WithContext(ctx).
		Model(&model.RentalIncomeModel{}).
		Distinct("asset_id").
		Where("status = ?", string(entity.IncomeStatusPending)).
		Order("asset_id").
		Pluck("asset_id", &assetIDs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list assets with pending income")
	}

	return assetIDs, nil
}

func (repo *rentalIncomeRepository) ListPendingByAssetForUpdate(ctx context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error) {
	var incomeMs []model.RentalIncomeModel
	if err := forUpdate(repo.db.WithContext(ctx)).
		Where("asset_id = ? AND status = ?", assetID, string(entity.IncomeStatusPending)).
		Order("period").
		Order("created_at").
		Find(&incomeMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list pending rental income")
	}

	return toIncomeDomains(incomeMs), nil
}

func (repo *rentalIncomeRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error) {
	var incomeMs []model.RentalIncomeModel
	if err := repo.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("period DESC").
		Find(&incomeMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list rental income")
	}

	return toIncomeDomains(incomeMs), nil
}

func (repo *rentalIncomeRepository) Update(ctx context.Context, income *entity.RentalIncome) error {
	incomeM := fromIncomeDomain(income)

	if err := repo.db.WithContext(ctx).Save(incomeM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update rental income")
	}

	income.UpdatedAt = incomeM.UpdatedAt

	return nil
}

type yieldDistributionRepository struct {
	db *gorm.DB
}

// NewYieldDistributionRepository is the constructor for yieldDistributionRepository.
func NewYieldDistributionRepository(db *gorm.DB) repository.YieldDistributionRepository {
	return &yieldDistributionRepository{db: db}
}

func (repo *yieldDistributionRepository) Exists(ctx context.Context, rentalIncomeID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.YieldDistributionModel{}).
		Where("rental_income_id = ? AND user_id = ?", rentalIncomeID, userID).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check yield distribution")
	}

	return count > 0, nil
}

func (repo *yieldDistributionRepository) Create(ctx context.Context, distribution *entity.YieldDistribution) error {
	distributionM := fromYieldDomain(distribution)

	if err := repo.db.WithContext(ctx).Create(distributionM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrDistributionAlreadyApplied
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create yield distribution")
	}

	distribution.CreatedAt = distributionM.CreatedAt

	return nil
}

func (repo *yieldDistributionRepository) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*entity.YieldDistribution, error) {
	page = page.Normalize()

	var distributionMs []model.YieldDistributionModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&distributionMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list user yields")
	}

	return toYieldDomains(distributionMs), nil
}

func (repo *yieldDistributionRepository) ListByIncome(ctx context.Context, rentalIncomeID uuid.UUID) ([]*entity.YieldDistribution, error) {
	var distributionMs []model.YieldDistributionModel
	if err := repo.db.WithContext(ctx).
		Where("rental_income_id = ?", rentalIncomeID).
		Order("user_id").
		Find(&distributionMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list income distributions")
	}

	return toYieldDomains(distributionMs), nil
}

func toIncomeDomain(data *model.RentalIncomeModel) *entity.RentalIncome {
	return &entity.RentalIncome{
		ID:            data.ID,
		AssetID:       data.AssetID,
		Amount:        data.Amount,
		Period:        data.Period,
		Status:        entity.IncomeStatus(data.Status),
		RecordedBy:    data.RecordedBy,
		DistributedAt: data.DistributedAt,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

func toIncomeDomains(data []model.RentalIncomeModel) []*entity.RentalIncome {
	incomes := make([]*entity.RentalIncome, 0, len(data))
	for i := range data {
		incomes = append(incomes, toIncomeDomain(&data[i]))
	}

	return incomes
}

func fromIncomeDomain(data *entity.RentalIncome) *model.RentalIncomeModel {
	return &model.RentalIncomeModel{
		ID:            data.ID,
		AssetID:       data.AssetID,
		Amount:        data.Amount,
		Period:        data.Period,
		Status:        string(data.Status),
		RecordedBy:    data.RecordedBy,
		DistributedAt: data.DistributedAt,
		CreatedAt:     data.CreatedAt,
	}
}

func toYieldDomains(data []model.YieldDistributionModel) []*entity.YieldDistribution {
	distributions := make([]*entity.YieldDistribution, 0, len(data))
	for i := range data {
		d := &data[i]
		distributions = append(distributions, &entity.YieldDistribution{
			ID:             d.ID,
			RentalIncomeID: d.RentalIncomeID,
			AssetID:        d.AssetID,
			UserID:         d.UserID,
			Units:          d.Units,
			Amount:         d.Amount,
			SettlementRef:  d.SettlementRef,
			CreatedAt:      d.CreatedAt,
		})
	}

	return distributions
}

func fromYieldDomain(data *entity.YieldDistribution) *model.YieldDistributionModel {
	return &model.YieldDistributionModel{
		ID:             data.ID,
		RentalIncomeID: data.RentalIncomeID,
		AssetID:        data.AssetID,
		UserID:         data.UserID,
		Units:          data.Units,
		Amount:         data.Amount,
		SettlementRef:  data.SettlementRef,
		CreatedAt:      data.CreatedAt,
	}
}
