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

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository is the constructor for assetRepository.
func NewAssetRepository(db *gorm.DB) repository.AssetRepository {
	return &assetRepository{db: db}
}

func (repo *assetRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Asset, error) {
	return repo.find(repo.db.WithContext(ctx), id)
}

func (repo *assetRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Asset, error) {
	return repo.find(forUpdate(repo.db.WithContext(ctx)), id)
}

func (repo *assetRepository) find(db *gorm.DB, id uuid.UUID) (*entity.Asset, error) {
	var assetM model.AssetModel
	if err := db.Where("id = ?", id).First(&assetM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAssetNotFound
		}

		return nil, errors.Wrap(err, "failed to find asset by id")
	}

	return toAssetDomain(&assetM), nil
}

func (repo *assetRepository) List(ctx context.Context, filter repository.AssetFilter) ([]*entity.Asset, error) {
	page := filter.Page.Normalize()
	query := repo.db.WithContext(ctx).Model(&model.AssetModel{})

	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.OwnerID != uuid.Nil {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	var assetMs []model.AssetModel
	if err := query.Order("created_at DESC").Order("id").Limit(page.Limit).Offset(page.Offset).Find(&assetMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list assets")
	}

	assets := make([]*entity.Asset, 0, len(assetMs))
	for i := range assetMs {
		assets = append(assets, toAssetDomain(&assetMs[i]))
	}

	return assets, nil
}

func (repo *assetRepository) Create(ctx context.Context, asset *entity.Asset) error {
	assetM := fromAssetDomain(asset)

	if err := repo.db.WithContext(ctx).Create(assetM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("asset owner does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create asset")
	}

	asset.CreatedAt = assetM.CreatedAt
	asset.UpdatedAt = assetM.UpdatedAt

	return nil
}

func (repo *assetRepository) Update(ctx context.Context, asset *entity.Asset) error {
	assetM := fromAssetDomain(asset)

	if err := repo.db.WithContext(ctx).Save(assetM).Error; err != nil {
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrInsufficientSupply.WrapMessage("unallocated units would become negative")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update asset")
	}

	asset.UpdatedAt = assetM.UpdatedAt

	return nil
}

func toAssetDomain(data *model.AssetModel) *entity.Asset {
	if data == nil {
		return nil
	}

	return &entity.Asset{
		ID:               data.ID,
		OwnerID:          data.OwnerID,
		Name:             data.Name,
		Location:         data.Location,
		Description:      data.Description,
		RiskTier:         data.RiskTier,
		Valuation:        data.Valuation,
		Status:           entity.AssetStatus(data.Status),
		TotalUnits:       data.TotalUnits,
		UnitPrice:        data.UnitPrice,
		UnallocatedUnits: data.UnallocatedUnits,
		VerificationHash: data.VerificationHash,
		VerifiedAt:       data.VerifiedAt,
		TokenizedAt:      data.TokenizedAt,
		StatusReason:     data.StatusReason,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

func fromAssetDomain(data *entity.Asset) *model.AssetModel {
	if data == nil {
		return nil
	}

	return &model.AssetModel{
		ID:               data.ID,
		OwnerID:          data.OwnerID,
		Name:             data.Name,
		Location:         data.Location,
		Description:      data.Description,
		RiskTier:         data.RiskTier,
		Valuation:        data.Valuation,
		Status:           string(data.Status),
		TotalUnits:       data.TotalUnits,
		UnitPrice:        data.UnitPrice,
		UnallocatedUnits: data.UnallocatedUnits,
		VerificationHash: data.VerificationHash,
		VerifiedAt:       data.VerifiedAt,
		TokenizedAt:      data.TokenizedAt,
		StatusReason:     data.StatusReason,
		CreatedAt:        data.CreatedAt,
	}
}
