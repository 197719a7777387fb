package usecase

import (
	"context"

	"propledger/internal/domain/entity"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is a user's position in one asset.
type Holding struct {
	AssetID     uuid.UUID
	AssetName   string
	Status      entity.AssetStatus
	Units       int64
	LockedUnits int64
	UnitPrice   decimal.Decimal
	MarketValue decimal.Decimal // (Units + LockedUnits) at the current unit price.
}

// WalletUsecase serves read-only views of a user's wallet.
type WalletUsecase interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	ListHistory(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*entity.ActionHistory, error)
	ListHoldings(ctx context.Context, userID uuid.UUID) ([]*Holding, error)
	ListCollateral(ctx context.Context, userID uuid.UUID) ([]*entity.Collateral, error)
	ListYields(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*entity.YieldDistribution, error)
}
