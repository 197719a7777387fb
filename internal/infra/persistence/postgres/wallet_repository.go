package postgres

import (
	"context"
	"encoding/json"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository is the constructor for walletRepository.
func NewWalletRepository(db *gorm.DB) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (repo *walletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return repo.find(repo.db.WithContext(ctx), userID)
}

func (repo *walletRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return repo.find(forUpdate(repo.db.WithContext(ctx)), userID)
}

func (repo *walletRepository) find(db *gorm.DB, userID uuid.UUID) (*entity.Wallet, error) {
	var walletM model.WalletModel
	if err := db.Where("user_id = ?", userID).First(&walletM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrWalletNotFound
		}

		return nil, errors.Wrap(err, "failed to find wallet by user id")
	}

	return toWalletDomain(&walletM), nil
}

func (repo *walletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	walletM := fromWalletDomain(wallet)

	if err := repo.db.WithContext(ctx).Create(walletM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("wallet already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create wallet")
	}

	wallet.CreatedAt = walletM.CreatedAt
	wallet.UpdatedAt = walletM.UpdatedAt

	return nil
}

func (repo *walletRepository) Update(ctx context.Context, wallet *entity.Wallet) error {
	walletM := fromWalletDomain(wallet)

	if err := repo.db.WithContext(ctx).Save(walletM).Error; err != nil {
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrInsufficientFunds
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update wallet")
	}

	wallet.UpdatedAt = walletM.UpdatedAt

	return nil
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository is the constructor for historyRepository.
func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (repo *historyRepository) Append(ctx context.Context, entry *entity.ActionHistory) error {
	entryM, err := fromHistoryDomain(entry)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrIdempotencyConflict.WrapMessage("idempotency key already used")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to append history entry")
	}

	entry.CreatedAt = entryM.CreatedAt

	return nil
}

func (repo *historyRepository) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*entity.ActionHistory, error) {
	page = page.Normalize()

	var entryMs []model.ActionHistoryModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&entryMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list history entries")
	}

	entries := make([]*entity.ActionHistory, 0, len(entryMs))
	for i := range entryMs {
		entry, err := toHistoryDomain(&entryMs[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (repo *historyRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*entity.ActionHistory, error) {
	if key == "" {
		return nil, nil
	}

	var entryM model.ActionHistoryModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&entryM).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find history entry by idempotency key")
	}

	return toHistoryDomain(&entryM)
}

func toWalletDomain(data *model.WalletModel) *entity.Wallet {
	return &entity.Wallet{
		UserID:                data.UserID,
		CashBalance:           data.CashBalance,
		TotalInvested:         data.TotalInvested,
		LockedCollateralValue: data.LockedCollateralValue,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}

func fromWalletDomain(data *entity.Wallet) *model.WalletModel {
	return &model.WalletModel{
		UserID:                data.UserID,
		CashBalance:           data.CashBalance,
		TotalInvested:         data.TotalInvested,
		LockedCollateralValue: data.LockedCollateralValue,
		CreatedAt:             data.CreatedAt,
	}
}

func toHistoryDomain(data *model.ActionHistoryModel) (*entity.ActionHistory, error) {
	var metadata map[string]any
	if len(data.Metadata) > 0 {
		if err := json.Unmarshal(data.Metadata, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to decode history metadata")
		}
	}

	return &entity.ActionHistory{
		ID:             data.ID,
		UserID:         data.UserID,
		AssetID:        data.AssetID,
		Type:           entity.HistoryType(data.Type),
		Description:    data.Description,
		Amount:         data.Amount,
		Units:          data.Units,
		BalanceAfter:   data.BalanceAfter,
		SettlementRef:  data.SettlementRef,
		IdempotencyKey: data.IdempotencyKey,
		Metadata:       metadata,
		CreatedAt:      data.CreatedAt,
	}, nil
}

func fromHistoryDomain(data *entity.ActionHistory) (*model.ActionHistoryModel, error) {
	var metadata datatypes.JSON
	if len(data.Metadata) > 0 {
		raw, err := json.Marshal(data.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode history metadata")
		}
		metadata = datatypes.JSON(raw)
	}

	return &model.ActionHistoryModel{
		ID:             data.ID,
		UserID:         data.UserID,
		AssetID:        data.AssetID,
		Type:           string(data.Type),
		Description:    data.Description,
		Amount:         data.Amount,
		Units:          data.Units,
		BalanceAfter:   data.BalanceAfter,
		SettlementRef:  data.SettlementRef,
		IdempotencyKey: data.IdempotencyKey,
		Metadata:       metadata,
		CreatedAt:      data.CreatedAt,
	}, nil
}
