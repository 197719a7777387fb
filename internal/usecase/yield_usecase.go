package usecase

import (
	"context"
	"time"

	"propledger/internal/domain/entity"
	"propledger/internal/domain/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordIncomeInput records rent collected for an asset over a period (YYYY-MM).
type RecordIncomeInput struct {
	AssetID uuid.UUID
	Amount  decimal.Decimal
	Period  string
}

// AssetDistributionResult is the outcome for one asset of a distribution run.
type AssetDistributionResult struct {
	AssetID        uuid.UUID
	IncomeIDs      []uuid.UUID
	HolderCount    int
	Payouts        int
	AlreadyApplied int             // Payouts skipped because a distribution row already existed.
	TotalPaid      decimal.Decimal // Sum credited to holder wallets.
	Retained       decimal.Decimal // Income kept by the platform.
	Err            error
}

// DistributionReport summarises a distribution run.
type DistributionReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Skipped    bool // Another run held the distribution lock.
	Assets     []AssetDistributionResult
}

// Failed returns the assets whose distribution rolled back.
func (r *DistributionReport) Failed() []AssetDistributionResult {
	var failed []AssetDistributionResult
	for _, res := range r.Assets {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	return failed
}

// TriggerOutcome is the result of an operator trigger: a report when the run was
// inline, or Queued when it was handed to the worker.
type TriggerOutcome struct {
	Queued    bool
	RequestID string
	Report    *DistributionReport
}

// YieldUsecase records rental income and distributes it to unit holders.
type YieldUsecase interface {
	RecordIncome(ctx context.Context, actor Actor, input *RecordIncomeInput) (*entity.RentalIncome, error)
	ListIncome(ctx context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error)

	// RunDistribution pays out every PENDING income. It is safe to call concurrently and repeatedly.
	RunDistribution(ctx context.Context) (*DistributionReport, error)

	// TriggerDistribution is the operator entry point; it runs inline or queues a request.
	TriggerDistribution(ctx context.Context, actor Actor) (*TriggerOutcome, error)

	// HandleEvent processes a distribution event delivered by the event bus.
	HandleEvent(ctx context.Context, event *service.DistributionEvent) error
}
