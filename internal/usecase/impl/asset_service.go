package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/domain/service"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// assetService implements the AssetUsecase interface.
type assetService struct {
	txManager  repository.TransactionManager
	assetRepo  repository.AssetRepository
	settlement service.Settlement
	logger     *slog.Logger
}

// AssetServiceParams holds dependencies for AssetService, injected by Fx.
type AssetServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	AssetRepo  repository.AssetRepository
	Settlement service.Settlement
	Logger     *slog.Logger
}

// NewAssetService is the constructor for assetService.
func NewAssetService(params AssetServiceParams) usecase.AssetUsecase {
	return &assetService{
		txManager:  params.TxManager,
		assetRepo:  params.AssetRepo,
		settlement: params.Settlement,
		logger:     params.Logger,
	}
}

func (srv *assetService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// transition describes one lifecycle step.
type transition struct {
	action      entity.Action
	event       entity.AssetEvent
	historyType entity.HistoryType
	apply       func(ctx context.Context, asset *entity.Asset, entry *entity.ActionHistory) error
}

func (srv *assetService) CreateAsset(ctx context.Context, actor usecase.Actor, input *usecase.CreateAssetInput) (*entity.Asset, error) {
	if err := authorize(actor, entity.ActionCreateAsset); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("asset name is required")
	}
	if input.Valuation.IsNegative() || !isMoney(input.Valuation) {
		return nil, validationError("valuation must be a non-negative amount with at most %d decimals", moneyPlaces)
	}

	asset := &entity.Asset{
		ID:          newID(),
		OwnerID:     actor.UserID,
		Name:        name,
		Location:    strings.TrimSpace(input.Location),
		Description: input.Description,
		RiskTier:    strings.TrimSpace(input.RiskTier),
		Valuation:   input.Valuation,
		Status:      entity.AssetStatusDraft,
	}

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		if err := repos.AssetRepo().Create(ctx, asset); err != nil {
			return err
		}

		return repos.HistoryRepo().Append(ctx, &entity.ActionHistory{
			ID:          newID(),
			UserID:      asset.OwnerID,
			AssetID:     &asset.ID,
			Type:        entity.HistoryAssetCreated,
			Description: fmt.Sprintf("Listed %s", asset.Name),
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset")
	}

	srv.log(ctx).Info("Asset created", slog.String("asset_id", asset.ID.String()), slog.String("owner_id", asset.OwnerID.String()))

	return asset, nil
}

func (srv *assetService) SubmitForAudit(ctx context.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error) {
	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionSubmitAsset,
		event:       entity.AssetEventSubmit,
		historyType: entity.HistoryAssetSubmitted,
	})
}

func (srv *assetService) Verify(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, verificationHash string) (*entity.Asset, error) {
	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionVerifyAsset,
		event:       entity.AssetEventVerify,
		historyType: entity.HistoryAssetVerified,
		apply: func(ctx context.Context, asset *entity.Asset, entry *entity.ActionHistory) error {
			ref, err := srv.settlement.Settle(ctx, &service.SettlementRequest{
				Kind:    service.SettlementVerify,
				UserID:  actor.UserID,
				AssetID: asset.ID,
			})
			if err != nil {
				return errors.Wrap(err, "settlement failed")
			}

			hash := strings.TrimSpace(verificationHash)
			if hash == "" {
				hash = ref
			}
			now := time.Now()
			asset.VerificationHash = hash
			asset.VerifiedAt = &now
			entry.SettlementRef = ref

			return nil
		},
	})
}

func (srv *assetService) Tokenize(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, input *usecase.TokenizeInput) (*entity.Asset, error) {
	if input.TotalUnits <= 0 {
		return nil, validationError("total units must be positive")
	}
	if !input.UnitPrice.IsPositive() || !isMoney(input.UnitPrice) {
		return nil, validationError("unit price must be positive with at most %d decimals", moneyPlaces)
	}

	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionTokenizeAsset,
		event:       entity.AssetEventTokenize,
		historyType: entity.HistoryAssetTokenized,
		apply: func(ctx context.Context, asset *entity.Asset, entry *entity.ActionHistory) error {
			ref, err := srv.settlement.Settle(ctx, &service.SettlementRequest{
				Kind:    service.SettlementTokenize,
				UserID:  actor.UserID,
				AssetID: asset.ID,
				Units:   input.TotalUnits,
			})
			if err != nil {
				return errors.Wrap(err, "settlement failed")
			}

			now := time.Now()
			asset.TotalUnits = input.TotalUnits
			asset.UnitPrice = input.UnitPrice
			asset.UnallocatedUnits = input.TotalUnits
			asset.TokenizedAt = &now

			entry.Units = input.TotalUnits
			entry.SettlementRef = ref
			entry.Metadata = map[string]any{"unitPrice": input.UnitPrice.StringFixed(moneyPlaces)}

			return nil
		},
	})
}

func (srv *assetService) Pause(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, reason string) (*entity.Asset, error) {
	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionPauseAsset,
		event:       entity.AssetEventPause,
		historyType: entity.HistoryAssetPaused,
		apply:       withReason(reason),
	})
}

func (srv *assetService) Resume(ctx context.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error) {
	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionResumeAsset,
		event:       entity.AssetEventResume,
		historyType: entity.HistoryAssetResumed,
		apply:       withReason(""),
	})
}

func (srv *assetService) Reject(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, reason string) (*entity.Asset, error) {
	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionRejectAsset,
		event:       entity.AssetEventReject,
		historyType: entity.HistoryAssetRejected,
		apply:       withReason(reason),
	})
}

func (srv *assetService) Dispute(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, reason string) (*entity.Asset, error) {
	return srv.transition(ctx, actor, assetID, transition{
		action:      entity.ActionDisputeAsset,
		event:       entity.AssetEventDispute,
		historyType: entity.HistoryAssetDisputed,
		apply:       withReason(reason),
	})
}

func withReason(reason string) func(context.Context, *entity.Asset, *entity.ActionHistory) error {
	return func(_ context.Context, asset *entity.Asset, entry *entity.ActionHistory) error {
		asset.StatusReason = strings.TrimSpace(reason)
		if asset.StatusReason != "" {
			entry.Description += ": " + asset.StatusReason
		}

		return nil
	}
}

// transition checks the role, then builder ownership, then the source state. It only
// flips the status (plus the fields set by apply) and journals the step for the owning builder.
func (srv *assetService) transition(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, step transition) (*entity.Asset, error) {
	if err := authorize(actor, step.action); err != nil {
		return nil, err
	}

	var updated *entity.Asset
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, assetID)
		if err != nil {
			return err
		}
		if err := authorizeOnAsset(actor, step.action, asset); err != nil {
			return err
		}

		from := asset.Status
		next, ok := entity.NextAssetStatus(from, step.event)
		if !ok {
			return domainerrors.ErrInvalidStateTransition.WithDetails(fmt.Sprintf("cannot %s an asset in status %s", step.event, from))
		}

		entry := &entity.ActionHistory{
			ID:          newID(),
			UserID:      asset.OwnerID,
			AssetID:     &asset.ID,
			Type:        step.historyType,
			Description: fmt.Sprintf("%s: %s -> %s", asset.Name, from, next),
		}
		if step.apply != nil {
			if err := step.apply(ctx, asset, entry); err != nil {
				return err
			}
		}

		asset.Status = next
		if err := repos.AssetRepo().Update(ctx, asset); err != nil {
			return err
		}
		if err := repos.HistoryRepo().Append(ctx, entry); err != nil {
			return err
		}

		updated = asset

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to %s asset", step.event)
	}

	srv.log(ctx).Info("Asset transitioned",
		slog.String("asset_id", assetID.String()),
		slog.String("event", string(step.event)),
		slog.String("status", string(updated.Status)),
		slog.String("actor_id", actor.UserID.String()),
	)

	return updated, nil
}

func (srv *assetService) GetAsset(ctx context.Context, assetID uuid.UUID) (*entity.Asset, error) {
	return srv.assetRepo.FindByID(ctx, assetID)
}

func (srv *assetService) ListAssets(ctx context.Context, filter repository.AssetFilter) ([]*entity.Asset, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, validationError("unknown asset status %q", filter.Status)
	}

	return srv.assetRepo.List(ctx, filter)
}

// Reconcile checks Σ balances + unallocated + locked == totalUnits under the asset lock.
func (srv *assetService) Reconcile(ctx context.Context, actor usecase.Actor, assetID uuid.UUID) (*usecase.AssetReconciliation, error) {
	if err := authorize(actor, entity.ActionReconcileAsset); err != nil {
		return nil, err
	}

	var result *usecase.AssetReconciliation
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, assetID)
		if err != nil {
			return err
		}

		holders, err := repos.OwnershipRepo().ListHoldersByAsset(ctx, assetID)
		if err != nil {
			return err
		}
		collaterals, err := repos.CollateralRepo().ListLockedByAsset(ctx, assetID)
		if err != nil {
			return err
		}

		result = reconcile(asset, holders, collaterals)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to reconcile asset")
	}

	if !result.Balanced {
		srv.log(ctx).Error("Asset unit conservation violated",
			slog.String("asset_id", assetID.String()),
			slog.Int64("total_units", result.TotalUnits),
			slog.Int64("unallocated_units", result.UnallocatedUnits),
			slog.Int64("owned_units", result.OwnedUnits),
			slog.Int64("locked_units", result.LockedUnits),
		)
	}

	return result, nil
}

func reconcile(asset *entity.Asset, holders []*entity.Ownership, collaterals []*entity.Collateral) *usecase.AssetReconciliation {
	result := &usecase.AssetReconciliation{
		AssetID:          asset.ID,
		TotalUnits:       asset.TotalUnits,
		UnallocatedUnits: asset.UnallocatedUnits,
		Holders:          len(holders),
	}
	for _, h := range holders {
		result.OwnedUnits += h.Balance
	}
	for _, c := range collaterals {
		result.LockedUnits += c.LockedUnits
	}
	result.Balanced = result.OwnedUnits+result.UnallocatedUnits+result.LockedUnits == result.TotalUnits

	return result
}
