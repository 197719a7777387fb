package usecase

import (
	"context"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeInput is a buy or sell order. A non-empty IdempotencyKey makes the order safe to replay.
type TradeInput struct {
	AssetID        uuid.UUID
	Units          int64
	IdempotencyKey string
}

// TradeReceipt describes an applied trade. Replayed is set when the receipt was
// reconstructed from an earlier order with the same idempotency key.
type TradeReceipt struct {
	HistoryID        uuid.UUID
	Type             entity.HistoryType
	AssetID          uuid.UUID
	Units            int64
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
	CashBalance      decimal.Decimal
	OwnershipBalance int64
	SettlementRef    string
	Replayed         bool
}

// CollateralInput pledges or releases units of an asset.
type CollateralInput struct {
	AssetID uuid.UUID
	Units   int64
}

// CollateralReceipt describes an applied lock or release.
type CollateralReceipt struct {
	Collateral       *entity.Collateral
	CreditDelta      decimal.Decimal // Cash credited (lock) or debited back (release).
	CashBalance      decimal.Decimal
	OwnershipBalance int64
	SettlementRef    string
}

// OwnershipUsecase moves units between the platform, investors and collateral.
type OwnershipUsecase interface {
	Buy(ctx context.Context, actor Actor, input *TradeInput) (*TradeReceipt, error)
	Sell(ctx context.Context, actor Actor, input *TradeInput) (*TradeReceipt, error)
	LockCollateral(ctx context.Context, actor Actor, input *CollateralInput) (*CollateralReceipt, error)
	ReleaseCollateral(ctx context.Context, actor Actor, input *CollateralInput) (*CollateralReceipt, error)
}
