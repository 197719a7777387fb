package usecase

import (
	"context"

	"propledger/internal/domain/entity"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAssetInput defines a builder's listing.
type CreateAssetInput struct {
	Name        string
	Location    string
	Description string
	RiskTier    string
	Valuation   decimal.Decimal
}

// TokenizeInput fixes the unit supply and price of a verified asset.
type TokenizeInput struct {
	TotalUnits int64
	UnitPrice  decimal.Decimal
}

// AssetReconciliation is the unit conservation breakdown of one asset.
type AssetReconciliation struct {
	AssetID          uuid.UUID
	TotalUnits       int64
	UnallocatedUnits int64
	OwnedUnits       int64
	LockedUnits      int64
	Holders          int
	Balanced         bool
}

// AssetUsecase drives the asset lifecycle.
type AssetUsecase interface {
	CreateAsset(ctx context.Context, actor Actor, input *CreateAssetInput) (*entity.Asset, error)
	SubmitForAudit(ctx context.Context, actor Actor, assetID uuid.UUID) (*entity.Asset, error)

	// Verify records verificationHash, or a fresh settlement reference when it is empty.
	Verify(ctx context.Context, actor Actor, assetID uuid.UUID, verificationHash string) (*entity.Asset, error)

	Tokenize(ctx context.Context, actor Actor, assetID uuid.UUID, input *TokenizeInput) (*entity.Asset, error)
	Pause(ctx context.Context, actor Actor, assetID uuid.UUID, reason string) (*entity.Asset, error)
	Resume(ctx context.Context, actor Actor, assetID uuid.UUID) (*entity.Asset, error)
	Reject(ctx context.Context, actor Actor, assetID uuid.UUID, reason string) (*entity.Asset, error)
	Dispute(ctx context.Context, actor Actor, assetID uuid.UUID, reason string) (*entity.Asset, error)

	GetAsset(ctx context.Context, assetID uuid.UUID) (*entity.Asset, error)
	ListAssets(ctx context.Context, filter repository.AssetFilter) ([]*entity.Asset, error)
	Reconcile(ctx context.Context, actor Actor, assetID uuid.UUID) (*AssetReconciliation, error)
}
