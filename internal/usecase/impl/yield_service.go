package impl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"propledger/config"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/domain/service"
	"propledger/internal/errors"
	"propledger/internal/usecase"
	"propledger/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

const (
	distributionLockName = "yield-distribution"

	metaIncomeID = "incomeId"
	metaPeriod   = "period"
)

// yieldService implements the YieldUsecase interface.
type yieldService struct {
	txManager  repository.TransactionManager
	incomeRepo repository.RentalIncomeRepository
	settlement service.Settlement
	publisher  service.EventPublisher
	cache      service.LedgerCache
	ledger     walletLedger
	workers    int
	policy     residualPolicy
	lockTTL    time.Duration
	async      bool
	logger     *slog.Logger
}

// YieldServiceParams holds dependencies for YieldService, injected by Fx.
type YieldServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	IncomeRepo repository.RentalIncomeRepository
	Settlement service.Settlement
	Publisher  service.EventPublisher
	Cache      service.LedgerCache
	Config     *config.Config
	Logger     *slog.Logger
}

// NewYieldService is the constructor for yieldService.
func NewYieldService(params YieldServiceParams) (usecase.YieldUsecase, error) {
	cfg := params.Config.Distribution

	policy, ok := parseResidualPolicy(cfg.ResidualPolicy)
	if !ok {
		return nil, errors.Errorf("unknown distribution residual policy %q", cfg.ResidualPolicy)
	}

	return &yieldService{
		txManager:  params.TxManager,
		incomeRepo: params.IncomeRepo,
		settlement: params.Settlement,
		publisher:  params.Publisher,
		cache:      params.Cache,
		workers:    max(cfg.Workers, 1),
		policy:     policy,
		lockTTL:    cfg.LockTTL,
		async:      cfg.Async,
		logger:     params.Logger,
	}, nil
}

func (srv *yieldService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *yieldService) RecordIncome(ctx context.Context, actor usecase.Actor, input *usecase.RecordIncomeInput) (*entity.RentalIncome, error) {
	if err := authorize(actor, entity.ActionRecordIncome); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() || !isMoney(input.Amount) {
		return nil, validationError("amount must be positive with at most %d decimals", moneyPlaces)
	}
	if _, err := util.ParsePeriod(input.Period); err != nil {
		return nil, validationError("period %q must be formatted as YYYY-MM", input.Period)
	}

	income := &entity.RentalIncome{
		ID:         newID(),
		AssetID:    input.AssetID,
		Amount:     input.Amount,
		Period:     input.Period,
		Status:     entity.IncomeStatusPending,
		RecordedBy: actor.UserID,
	}

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, input.AssetID)
		if err != nil {
			return err
		}
		if err := authorizeOnAsset(actor, entity.ActionRecordIncome, asset); err != nil {
			return err
		}
		if asset.Status != entity.AssetStatusActive && asset.Status != entity.AssetStatusPaused {
			return domainerrors.ErrAssetNotTradeable.WithDetails(fmt.Sprintf("income cannot be recorded while asset is %s", asset.Status))
		}

		if err := repos.RentalIncomeRepo().Create(ctx, income); err != nil {
			return err
		}

		return srv.ledger.appendHistory(ctx, repos, asset.OwnerID, &entity.ActionHistory{
			AssetID:     &asset.ID,
			Type:        entity.HistoryIncomeRecorded,
			Description: fmt.Sprintf("Rental income of %s recorded for %s, %s", income.Amount.StringFixed(moneyPlaces), asset.Name, income.Period),
			Metadata: map[string]any{
				metaIncomeID: income.ID.String(),
				metaPeriod:   income.Period,
			},
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to record income")
	}

	srv.log(ctx).Info("Rental income recorded",
		slog.String("asset_id", income.AssetID.String()),
		slog.String("period", income.Period),
		slog.String("amount", income.Amount.StringFixed(moneyPlaces)),
	)

	return income, nil
}

func (srv *yieldService) ListIncome(ctx context.Context, assetID uuid.UUID) ([]*entity.RentalIncome, error) {
	incomes, err := srv.incomeRepo.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list income")
	}

	return incomes, nil
}

// RunDistribution pays every PENDING income, one transaction per asset. Assets run in
// parallel up to the configured worker count; a failing asset rolls back alone and
// is reported without stopping the others.
func (srv *yieldService) RunDistribution(ctx context.Context) (*usecase.DistributionReport, error) {
	report := &usecase.DistributionReport{
		RunID:     newID(),
		StartedAt: time.Now().UTC(),
	}
	logger := srv.log(ctx).With(slog.String("run_id", report.RunID.String()))

	release, acquired, err := srv.cache.AcquireLock(ctx, distributionLockName, srv.lockTTL)
	if err != nil {
		// The run lock only avoids duplicate work; idempotency rows keep the ledger correct.
		logger.Warn("Distribution lock unavailable, running without it", slog.Any("error", err))
	} else if !acquired {
		logger.Info("Distribution already running elsewhere, skipping")
		report.Skipped = true
		report.FinishedAt = time.Now().UTC()

		return report, nil
	}
	defer release()

	assetIDs, err := srv.incomeRepo.ListPendingAssetIDs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assets with pending income")
	}

	report.Assets = make([]usecase.AssetDistributionResult, len(assetIDs))

	var group errgroup.Group
	group.SetLimit(srv.workers)
	for i, assetID := range assetIDs {
		group.Go(func() error {
			report.Assets[i] = srv.distributeAsset(ctx, assetID)

			return nil
		})
	}
	_ = group.Wait()

	report.FinishedAt = time.Now().UTC()

	failed := report.Failed()
	for _, res := range failed {
		logger.Error("Asset distribution rolled back",
			slog.String("asset_id", res.AssetID.String()),
			slog.Any("error", res.Err),
		)
	}
	logger.Info("Distribution run finished",
		slog.Int("assets", len(report.Assets)),
		slog.Int("failed", len(failed)),
		slog.String("duration", util.FormatDuration(report.FinishedAt.Sub(report.StartedAt))),
	)

	return report, nil
}

func (srv *yieldService) distributeAsset(ctx context.Context, assetID uuid.UUID) usecase.AssetDistributionResult {
	result := usecase.AssetDistributionResult{
		AssetID:   assetID,
		TotalPaid: decimal.Zero,
		Retained:  decimal.Zero,
	}
	var paidUsers []uuid.UUID

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		tx := usecase.AssetDistributionResult{AssetID: assetID, TotalPaid: decimal.Zero, Retained: decimal.Zero}
		var txPaid []uuid.UUID

		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, assetID)
		if err != nil {
			return err
		}

		incomes, err := repos.RentalIncomeRepo().ListPendingByAssetForUpdate(ctx, assetID)
		if err != nil {
			return err
		}
		if len(incomes) == 0 {
			result = tx

			return nil
		}
		if !asset.IsTokenized() {
			return errors.Errorf("asset %s has pending income but no units", assetID)
		}

		holders, err := repos.OwnershipRepo().ListHoldersByAsset(ctx, assetID)
		if err != nil {
			return err
		}
		slices.SortFunc(holders, func(a, b *entity.Ownership) int {
			return compareIDs(a.UserID, b.UserID)
		})
		tx.HolderCount = len(holders)

		now := time.Now().UTC()
		for _, income := range incomes {
			shares, retained := splitIncome(income.Amount, asset.TotalUnits, holders, srv.policy)
			tx.Retained = tx.Retained.Add(retained)

			for _, share := range shares {
				if share.Amount.IsZero() {
					continue
				}

				paid, err := srv.payHolder(ctx, repos, asset, income, share)
				if err != nil {
					return err
				}
				if !paid {
					tx.AlreadyApplied++

					continue
				}
				tx.Payouts++
				tx.TotalPaid = tx.TotalPaid.Add(share.Amount)
				txPaid = append(txPaid, share.UserID)
			}

			income.Status = entity.IncomeStatusDistributed
			income.DistributedAt = &now
			if err := repos.RentalIncomeRepo().Update(ctx, income); err != nil {
				return err
			}
			tx.IncomeIDs = append(tx.IncomeIDs, income.ID)
		}

		result = tx
		paidUsers = txPaid

		return nil
	})
	if err != nil {
		result = usecase.AssetDistributionResult{
			AssetID:   assetID,
			TotalPaid: decimal.Zero,
			Retained:  decimal.Zero,
			Err:       errors.Wrapf(err, "failed to distribute asset %s", assetID),
		}

		return result
	}

	if len(result.IncomeIDs) == 0 {
		return result
	}

	srv.cache.InvalidateWallets(ctx, paidUsers...)
	srv.publishDistributed(ctx, &result)

	return result
}

// payHolder credits one holder's share. It reports false when the holder was already
// paid for the income, which happens when an earlier run committed the payout but
// failed before flipping the income.
func (srv *yieldService) payHolder(
	ctx context.Context,
	repos repository.RepositoryFactory,
	asset *entity.Asset,
	income *entity.RentalIncome,
	share holderShare,
) (bool, error) {
	exists, err := repos.YieldRepo().Exists(ctx, income.ID, share.UserID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	ref, err := srv.settlement.Settle(ctx, &service.SettlementRequest{
		Kind:    service.SettlementYield,
		UserID:  share.UserID,
		AssetID: asset.ID,
		Units:   share.Units,
		Amount:  share.Amount,
	})
	if err != nil {
		return false, errors.Wrap(err, "yield settlement failed")
	}

	entry := &entity.ActionHistory{
		AssetID:       &asset.ID,
		Type:          entity.HistoryYield,
		Description:   fmt.Sprintf("Rental yield from %s for %s", asset.Name, income.Period),
		Units:         share.Units,
		SettlementRef: ref,
		Metadata: map[string]any{
			metaIncomeID: income.ID.String(),
			metaPeriod:   income.Period,
		},
	}
	if _, err := srv.ledger.credit(ctx, repos, share.UserID, share.Amount, entry); err != nil {
		return false, err
	}

	err = repos.YieldRepo().Create(ctx, &entity.YieldDistribution{
		ID:             newID(),
		RentalIncomeID: income.ID,
		AssetID:        asset.ID,
		UserID:         share.UserID,
		Units:          share.Units,
		Amount:         share.Amount,
		SettlementRef:  ref,
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

func (srv *yieldService) publishDistributed(ctx context.Context, result *usecase.AssetDistributionResult) {
	incomeIDs := make([]string, 0, len(result.IncomeIDs))
	for _, id := range result.IncomeIDs {
		incomeIDs = append(incomeIDs, id.String())
	}

	event := &service.DistributionEvent{
		RequestID:   deliverycontext.GetRequestIDFromContext(ctx),
		EventID:     newID().String(),
		Type:        service.EventAssetDistributed,
		AssetID:     result.AssetID.String(),
		IncomeIDs:   incomeIDs,
		HolderCount: result.HolderCount,
		TotalPaid:   result.TotalPaid,
		Retained:    result.Retained,
		OccurredAt:  time.Now().UTC(),
	}
	if err := srv.publisher.PublishDistributionEvent(ctx, event); err != nil {
		// The ledger has committed; the event is informational.
		srv.log(ctx).Warn("Failed to publish distribution event",
			slog.String("asset_id", event.AssetID),
			slog.Any("error", err),
		)
	}
}

func (srv *yieldService) TriggerDistribution(ctx context.Context, actor usecase.Actor) (*usecase.TriggerOutcome, error) {
	if err := authorize(actor, entity.ActionRunDistribution); err != nil {
		return nil, err
	}

	requestID := deliverycontext.GetRequestIDFromContext(ctx)
	if requestID == "" {
		requestID = deliverycontext.NewRequestID()
	}

	if srv.async {
		event := &service.DistributionEvent{
			RequestID:  requestID,
			EventID:    newID().String(),
			Type:       service.EventDistributionRequested,
			TotalPaid:  decimal.Zero,
			Retained:   decimal.Zero,
			OccurredAt: time.Now().UTC(),
		}
		if err := srv.publisher.PublishDistributionEvent(ctx, event); err != nil {
			return nil, errors.Wrap(err, "failed to queue distribution")
		}

		srv.log(ctx).Info("Distribution queued", slog.String("event_id", event.EventID))

		return &usecase.TriggerOutcome{Queued: true, RequestID: requestID}, nil
	}

	report, err := srv.RunDistribution(ctx)
	if err != nil {
		return nil, err
	}

	return &usecase.TriggerOutcome{RequestID: requestID, Report: report}, nil
}

// HandleEvent returns an error when the event should be redelivered. Re-running a
// partially failed distribution is safe, so failed assets are surfaced as an error.
func (srv *yieldService) HandleEvent(ctx context.Context, event *service.DistributionEvent) error {
	logger := srv.log(ctx).With(
		slog.String("event_id", event.EventID),
		slog.String("type", string(event.Type)),
	)

	switch event.Type {
	case service.EventDistributionRequested:
		report, err := srv.RunDistribution(ctx)
		if err != nil {
			return err
		}
		if failed := report.Failed(); len(failed) > 0 {
			err := errors.Errorf("distribution run %s: %d of %d assets failed", report.RunID, len(failed), len(report.Assets))
			if allPermanent(failed) {
				return errors.Permanent(err)
			}

			return err
		}

		return nil
	case service.EventAssetDistributed:
		logger.Info("Asset distribution announced",
			slog.String("asset_id", event.AssetID),
			slog.Int("holders", event.HolderCount),
			slog.String("total_paid", event.TotalPaid.StringFixed(moneyPlaces)),
		)

		return nil
	default:
		return domainerrors.ErrValidationFailed.WithDetails(fmt.Sprintf("unknown event type %q", event.Type))
	}
}

func allPermanent(results []usecase.AssetDistributionResult) bool {
	for _, res := range results {
		if !errors.IsPermanent(res.Err) {
			return false
		}
	}

	return true
}
