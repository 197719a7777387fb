package postgres

import (
	"context"
	"time"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ownershipRepository struct {
	db *gorm.DB
}

// NewOwnershipRepository is the constructor for ownershipRepository.
func NewOwnershipRepository(db *gorm.DB) repository.OwnershipRepository {
	return &ownershipRepository{db: db}
}

func (repo *ownershipRepository) Find(ctx context.Context, userID, assetID uuid.UUID) (*entity.Ownership, error) {
	return repo.find(repo.db.WithContext(ctx), userID, assetID)
}

// FindForUpdate cannot lock a row that does not exist yet. First buys of an asset are
// still serialized by the asset row lock taken before it.
func (repo *ownershipRepository) FindForUpdate(ctx context.Context, userID, assetID uuid.UUID) (*entity.Ownership, error) {
	return repo.find(forUpdate(repo.db.WithContext(ctx)), userID, assetID)
}

func (repo *ownershipRepository) find(db *gorm.DB, userID, assetID uuid.UUID) (*entity.Ownership, error) {
	var ownershipM model.OwnershipModel
	err := db.Where("user_id = ? AND asset_id = ?", userID, assetID).First(&ownershipM).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.Ownership{UserID: userID, AssetID: assetID}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find ownership")
	}

	return toOwnershipDomain(&ownershipM), nil
}

func (repo *ownershipRepository) ListHoldersByAsset(ctx context.Context, assetID uuid.UUID) ([]*entity.Ownership, error) {
	var ownershipMs []model.OwnershipModel
	if err := repo.db.WithContext(ctx).
		Where("asset_id = ? AND balance > 0", assetID).
		Order("user_id").
		Find(&ownershipMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list asset holders")
	}

	return toOwnershipDomains(ownershipMs), nil
}

func (repo *ownershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Ownership, error) {
	var ownershipMs []model.OwnershipModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND balance > 0", userID).
		Order("asset_id").
		Find(&ownershipMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list user holdings")
	}

	return toOwnershipDomains(ownershipMs), nil
}

func (repo *ownershipRepository) Save(ctx context.Context, ownership *entity.Ownership) error {
	now := time.Now()
	ownershipM := &model.OwnershipModel{
		UserID:    ownership.UserID,
		AssetID:   ownership.AssetID,
		Balance:   ownership.Balance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(ownershipM).Error
	if err != nil {
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrInsufficientUnits
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save ownership")
	}

	ownership.UpdatedAt = now

	return nil
}

type collateralRepository struct {
	db *gorm.DB
}

// NewCollateralRepository is the constructor for collateralRepository.
func NewCollateralRepository(db *gorm.DB) repository.CollateralRepository {
	return &collateralRepository{db: db}
}

func (repo *collateralRepository) FindLockedForUpdate(ctx context.Context, userID, assetID uuid.UUID) (*entity.Collateral, error) {
	var collateralM model.CollateralModel
	err := forUpdate(repo.db.WithContext(ctx)).
		Where("user_id = ? AND asset_id = ? AND status = ?", userID, assetID, string(entity.CollateralStatusLocked)).
		First(&collateralM).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find locked collateral")
	}

	return toCollateralDomain(&collateralM), nil
}

func (repo *collateralRepository) ListLockedByAsset(ctx context.Context, assetID uuid.UUID) ([]*entity.Collateral, error) {
	var collateralMs []model.CollateralModel
	if err := repo.db.WithContext(ctx).
		Where("asset_id = ? AND status = ?", assetID, string(entity.CollateralStatusLocked)).
		Order("user_id").
		Find(&collateralMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list locked collateral")
	}

	return toCollateralDomains(collateralMs), nil
}

func (repo *collateralRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Collateral, error) {
	var collateralMs []model.CollateralModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&collateralMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list user collateral")
	}

	return toCollateralDomains(collateralMs), nil
}

func (repo *collateralRepository) Create(ctx context.Context, collateral *entity.Collateral) error {
	collateralM := fromCollateralDomain(collateral)

	if err := repo.db.WithContext(ctx).Create(collateralM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("collateral already locked for asset")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create collateral")
	}

	collateral.CreatedAt = collateralM.CreatedAt
	collateral.UpdatedAt = collateralM.UpdatedAt

	return nil
}

func (repo *collateralRepository) Update(ctx context.Context, collateral *entity.Collateral) error {
	collateralM := fromCollateralDomain(collateral)

	if err := repo.db.WithContext(ctx).Save(collateralM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update collateral")
	}

	collateral.UpdatedAt = collateralM.UpdatedAt

	return nil
}

func toOwnershipDomain(data *model.OwnershipModel) *entity.Ownership {
	return &entity.Ownership{
		UserID:    data.UserID,
		AssetID:   data.AssetID,
		Balance:   data.Balance,
		UpdatedAt: data.UpdatedAt,
	}
}

func toOwnershipDomains(data []model.OwnershipModel) []*entity.Ownership {
	ownerships := make([]*entity.Ownership, 0, len(data))
	for i := range data {
		ownerships = append(ownerships, toOwnershipDomain(&data[i]))
	}

	return ownerships
}

func toCollateralDomain(data *model.CollateralModel) *entity.Collateral {
	return &entity.Collateral{
		ID:           data.ID,
		UserID:       data.UserID,
		AssetID:      data.AssetID,
		LockedUnits:  data.LockedUnits,
		LockedValue:  data.LockedValue,
		CreditIssued: data.CreditIssued,
		Status:       entity.CollateralStatus(data.Status),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func toCollateralDomains(data []model.CollateralModel) []*entity.Collateral {
	collaterals := make([]*entity.Collateral, 0, len(data))
	for i := range data {
		collaterals = append(collaterals, toCollateralDomain(&data[i]))
	}

	return collaterals
}

func fromCollateralDomain(data *entity.Collateral) *model.CollateralModel {
	return &model.CollateralModel{
		ID:           data.ID,
		UserID:       data.UserID,
		AssetID:      data.AssetID,
		LockedUnits:  data.LockedUnits,
		LockedValue:  data.LockedValue,
		CreditIssued: data.CreditIssued,
		Status:       string(data.Status),
		CreatedAt:    data.CreatedAt,
	}
}
