package impl

import (
	"context"
	"fmt"
	"log/slog"

	"propledger/config"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/domain/service"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

const (
	metaUnitPrice        = "unitPrice"
	metaOwnershipBalance = "ownershipBalance"
	metaLockedValue      = "lockedValue"
)

// ownershipService implements the OwnershipUsecase interface.
// Every operation locks, in order: asset row, ownership row, collateral row, wallet row.
type ownershipService struct {
	txManager   repository.TransactionManager
	settlement  service.Settlement
	cache       service.LedgerCache
	ledger      walletLedger
	creditRatio decimal.Decimal
	logger      *slog.Logger
}

// OwnershipServiceParams holds dependencies for OwnershipService, injected by Fx.
type OwnershipServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	Settlement service.Settlement
	Cache      service.LedgerCache
	Config     *config.Config
	Logger     *slog.Logger
}

// NewOwnershipService is the constructor for ownershipService.
func NewOwnershipService(params OwnershipServiceParams) usecase.OwnershipUsecase {
	return &ownershipService{
		txManager:   params.TxManager,
		settlement:  params.Settlement,
		cache:       params.Cache,
		creditRatio: params.Config.Ledger.CollateralCreditRatio,
		logger:      params.Logger,
	}
}

func (srv *ownershipService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *ownershipService) Buy(ctx context.Context, actor usecase.Actor, input *usecase.TradeInput) (*usecase.TradeReceipt, error) {
	if err := authorize(actor, entity.ActionBuyUnits); err != nil {
		return nil, err
	}
	if err := positiveUnits(input.Units); err != nil {
		return nil, err
	}

	var receipt *usecase.TradeReceipt
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, input.AssetID)
		if err != nil {
			return err
		}

		if replay, err := srv.replay(ctx, repos, actor.UserID, entity.HistoryBuy, input); err != nil || replay != nil {
			receipt = replay

			return err
		}

		if !asset.IsTradeable() {
			return domainerrors.ErrAssetNotTradeable.WithDetails(fmt.Sprintf("asset is %s", asset.Status))
		}
		if asset.UnallocatedUnits < input.Units {
			return domainerrors.ErrInsufficientSupply.WithDetails(
				fmt.Sprintf("requested %d units, %d available", input.Units, asset.UnallocatedUnits),
			)
		}

		ownership, err := repos.OwnershipRepo().FindForUpdate(ctx, actor.UserID, asset.ID)
		if err != nil {
			return err
		}

		cost := asset.PriceOf(input.Units)
		if err := srv.ledger.reserve(ctx, repos, actor.UserID, cost); err != nil {
			return err
		}

		ref, err := srv.settle(ctx, service.SettlementBuy, actor.UserID, asset.ID, input.Units, cost)
		if err != nil {
			return err
		}

		ownership.Balance += input.Units
		asset.UnallocatedUnits -= input.Units

		entry := tradeEntry(entity.HistoryBuy, asset, input, ref, ownership.Balance)
		wallet, err := srv.ledger.debit(ctx, repos, actor.UserID, cost, entry, addInvested(cost))
		if err != nil {
			return err
		}

		if err := repos.OwnershipRepo().Save(ctx, ownership); err != nil {
			return err
		}
		if err := repos.AssetRepo().Update(ctx, asset); err != nil {
			return err
		}

		receipt = tradeReceipt(entry, asset, wallet, ownership.Balance)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to buy units")
	}

	srv.afterTrade(ctx, actor.UserID, receipt)

	return receipt, nil
}

func (srv *ownershipService) Sell(ctx context.Context, actor usecase.Actor, input *usecase.TradeInput) (*usecase.TradeReceipt, error) {
	if err := authorize(actor, entity.ActionSellUnits); err != nil {
		return nil, err
	}
	if err := positiveUnits(input.Units); err != nil {
		return nil, err
	}

	var receipt *usecase.TradeReceipt
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, input.AssetID)
		if err != nil {
			return err
		}

		if replay, err := srv.replay(ctx, repos, actor.UserID, entity.HistorySell, input); err != nil || replay != nil {
			receipt = replay

			return err
		}

		if asset.IsFrozen() {
			return domainerrors.ErrAssetFrozen.WithDetails(fmt.Sprintf("asset is %s", asset.Status))
		}

		ownership, err := repos.OwnershipRepo().FindForUpdate(ctx, actor.UserID, asset.ID)
		if err != nil {
			return err
		}
		if ownership.Balance < input.Units {
			return domainerrors.ErrInsufficientUnits.WithDetails(
				fmt.Sprintf("requested %d units, %d held", input.Units, ownership.Balance),
			)
		}

		proceeds := asset.PriceOf(input.Units)
		ref, err := srv.settle(ctx, service.SettlementSell, actor.UserID, asset.ID, input.Units, proceeds)
		if err != nil {
			return err
		}

		ownership.Balance -= input.Units
		asset.UnallocatedUnits += input.Units

		entry := tradeEntry(entity.HistorySell, asset, input, ref, ownership.Balance)
		wallet, err := srv.ledger.credit(ctx, repos, actor.UserID, proceeds, entry, reduceInvested(proceeds))
		if err != nil {
			return err
		}

		if err := repos.OwnershipRepo().Save(ctx, ownership); err != nil {
			return err
		}
		if err := repos.AssetRepo().Update(ctx, asset); err != nil {
			return err
		}

		receipt = tradeReceipt(entry, asset, wallet, ownership.Balance)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sell units")
	}

	srv.afterTrade(ctx, actor.UserID, receipt)

	return receipt, nil
}

// replay returns the stored receipt when the idempotency key was already used for the
// same order, and ErrIdempotencyConflict when it was used for a different one.
// It runs under the asset lock, so a concurrent duplicate waits for the first order to commit.
func (srv *ownershipService) replay(
	ctx context.Context,
	repos repository.RepositoryFactory,
	userID uuid.UUID,
	typ entity.HistoryType,
	input *usecase.TradeInput,
) (*usecase.TradeReceipt, error) {
	if input.IdempotencyKey == "" {
		return nil, nil
	}

	entry, err := repos.HistoryRepo().FindByIdempotencyKey(ctx, userID, input.IdempotencyKey)
	if err != nil || entry == nil {
		return nil, err
	}

	if entry.Type != typ || entry.AssetID == nil || *entry.AssetID != input.AssetID || entry.Units != input.Units {
		return nil, domainerrors.ErrIdempotencyConflict.WithDetails("idempotency key was used for a different order")
	}

	receipt := &usecase.TradeReceipt{
		HistoryID:     entry.ID,
		Type:          entry.Type,
		AssetID:       input.AssetID,
		Units:         entry.Units,
		Amount:        entry.Amount.Decimal,
		CashBalance:   entry.BalanceAfter.Decimal,
		SettlementRef: entry.SettlementRef,
		Replayed:      true,
	}
	if price, ok := metadataDecimal(entry.Metadata[metaUnitPrice]); ok {
		receipt.UnitPrice = price
	}
	if balance, ok := metadataInt(entry.Metadata[metaOwnershipBalance]); ok {
		receipt.OwnershipBalance = balance
	}

	return receipt, nil
}

func (srv *ownershipService) LockCollateral(ctx context.Context, actor usecase.Actor, input *usecase.CollateralInput) (*usecase.CollateralReceipt, error) {
	if err := authorize(actor, entity.ActionLockCollateral); err != nil {
		return nil, err
	}
	if err := positiveUnits(input.Units); err != nil {
		return nil, err
	}

	var receipt *usecase.CollateralReceipt
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, input.AssetID)
		if err != nil {
			return err
		}
		if asset.IsFrozen() {
			return domainerrors.ErrAssetFrozen.WithDetails(fmt.Sprintf("asset is %s", asset.Status))
		}

		ownership, err := repos.OwnershipRepo().FindForUpdate(ctx, actor.UserID, asset.ID)
		if err != nil {
			return err
		}
		if ownership.Balance < input.Units {
			return domainerrors.ErrInsufficientFreeUnits.WithDetails(
				fmt.Sprintf("requested %d units, %d free", input.Units, ownership.Balance),
			)
		}

		collateral, err := repos.CollateralRepo().FindLockedForUpdate(ctx, actor.UserID, asset.ID)
		if err != nil {
			return err
		}
		isNew := collateral == nil
		if isNew {
			collateral = &entity.Collateral{
				ID:      newID(),
				UserID:  actor.UserID,
				AssetID: asset.ID,
				Status:  entity.CollateralStatusLocked,
			}
		}

		lockedValue := asset.PriceOf(input.Units)
		credit := lockedValue.Mul(srv.creditRatio).Round(moneyPlaces)

		ref, err := srv.settle(ctx, service.SettlementLock, actor.UserID, asset.ID, input.Units, lockedValue)
		if err != nil {
			return err
		}

		ownership.Balance -= input.Units
		collateral.LockedUnits += input.Units
		collateral.LockedValue = collateral.LockedValue.Add(lockedValue)
		collateral.CreditIssued = collateral.CreditIssued.Add(credit)

		entry := &entity.ActionHistory{
			AssetID:       &asset.ID,
			Type:          entity.HistoryCollateralLock,
			Description:   fmt.Sprintf("Locked %d units of %s as collateral", input.Units, asset.Name),
			Units:         input.Units,
			SettlementRef: ref,
			Metadata: map[string]any{
				metaLockedValue:      lockedValue.StringFixed(moneyPlaces),
				metaOwnershipBalance: ownership.Balance,
			},
		}
		wallet, err := srv.ledger.credit(ctx, repos, actor.UserID, credit, entry, addLockedCollateral(lockedValue))
		if err != nil {
			return err
		}

		if err := repos.OwnershipRepo().Save(ctx, ownership); err != nil {
			return err
		}
		if isNew {
			err = repos.CollateralRepo().Create(ctx, collateral)
		} else {
			err = repos.CollateralRepo().Update(ctx, collateral)
		}
		if err != nil {
			return err
		}

		receipt = &usecase.CollateralReceipt{
			Collateral:       collateral,
			CreditDelta:      credit,
			CashBalance:      wallet.CashBalance,
			OwnershipBalance: ownership.Balance,
			SettlementRef:    ref,
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock collateral")
	}

	srv.cache.InvalidateWallets(ctx, actor.UserID)
	srv.log(ctx).Info("Collateral locked",
		slog.String("asset_id", input.AssetID.String()),
		slog.Int64("units", input.Units),
		slog.String("credit", receipt.CreditDelta.StringFixed(moneyPlaces)),
	)

	return receipt, nil
}

// ReleaseCollateral moves units back to the tradable balance. Value and any issued
// credit are reduced pro rata; the credit share is debited back from cash.
func (srv *ownershipService) ReleaseCollateral(ctx context.Context, actor usecase.Actor, input *usecase.CollateralInput) (*usecase.CollateralReceipt, error) {
	if err := authorize(actor, entity.ActionReleaseCollateral); err != nil {
		return nil, err
	}
	if err := positiveUnits(input.Units); err != nil {
		return nil, err
	}

	var receipt *usecase.CollateralReceipt
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		asset, err := repos.AssetRepo().FindByIDForUpdate(ctx, input.AssetID)
		if err != nil {
			return err
		}

		ownership, err := repos.OwnershipRepo().FindForUpdate(ctx, actor.UserID, asset.ID)
		if err != nil {
			return err
		}

		collateral, err := repos.CollateralRepo().FindLockedForUpdate(ctx, actor.UserID, asset.ID)
		if err != nil {
			return err
		}
		if collateral == nil {
			return domainerrors.ErrCollateralNotFound
		}
		if collateral.LockedUnits < input.Units {
			return domainerrors.ErrInsufficientUnits.WithDetails(
				fmt.Sprintf("requested %d units, %d locked", input.Units, collateral.LockedUnits),
			)
		}

		valueReleased, creditReversed := releaseShare(collateral, input.Units)
		if err := srv.ledger.reserve(ctx, repos, actor.UserID, creditReversed); err != nil {
			return err
		}

		ref, err := srv.settle(ctx, service.SettlementRelease, actor.UserID, asset.ID, input.Units, valueReleased)
		if err != nil {
			return err
		}

		ownership.Balance += input.Units
		collateral.LockedUnits -= input.Units
		collateral.LockedValue = collateral.LockedValue.Sub(valueReleased)
		collateral.CreditIssued = collateral.CreditIssued.Sub(creditReversed)
		if collateral.LockedUnits == 0 {
			collateral.Status = entity.CollateralStatusReleased
		}

		entry := &entity.ActionHistory{
			AssetID:       &asset.ID,
			Type:          entity.HistoryCollateralRelease,
			Description:   fmt.Sprintf("Released %d units of %s from collateral", input.Units, asset.Name),
			Units:         input.Units,
			SettlementRef: ref,
			Metadata: map[string]any{
				metaLockedValue:      valueReleased.StringFixed(moneyPlaces),
				metaOwnershipBalance: ownership.Balance,
			},
		}
		wallet, err := srv.ledger.debit(ctx, repos, actor.UserID, creditReversed, entry, reduceLockedCollateral(valueReleased))
		if err != nil {
			return err
		}

		if err := repos.OwnershipRepo().Save(ctx, ownership); err != nil {
			return err
		}
		if err := repos.CollateralRepo().Update(ctx, collateral); err != nil {
			return err
		}

		receipt = &usecase.CollateralReceipt{
			Collateral:       collateral,
			CreditDelta:      creditReversed,
			CashBalance:      wallet.CashBalance,
			OwnershipBalance: ownership.Balance,
			SettlementRef:    ref,
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to release collateral")
	}

	srv.cache.InvalidateWallets(ctx, actor.UserID)

	return receipt, nil
}

// releaseShare returns the locked value and issued credit attributable to units.
// A full release returns the exact remainders so nothing is stranded by rounding.
func releaseShare(collateral *entity.Collateral, units int64) (value, credit decimal.Decimal) {
	if units == collateral.LockedUnits {
		return collateral.LockedValue, collateral.CreditIssued
	}

	fraction := decimal.NewFromInt(units)
	locked := decimal.NewFromInt(collateral.LockedUnits)
	value = collateral.LockedValue.Mul(fraction).Div(locked).Round(moneyPlaces)
	credit = collateral.CreditIssued.Mul(fraction).Div(locked).Round(moneyPlaces)

	return value, credit
}

func (srv *ownershipService) settle(
	ctx context.Context,
	kind service.SettlementKind,
	userID, assetID uuid.UUID,
	units int64,
	amount decimal.Decimal,
) (string, error) {
	ref, err := srv.settlement.Settle(ctx, &service.SettlementRequest{
		Kind:    kind,
		UserID:  userID,
		AssetID: assetID,
		Units:   units,
		Amount:  amount,
	})
	if err != nil {
		return "", errors.Wrapf(err, "%s settlement failed", kind)
	}

	return ref, nil
}

func (srv *ownershipService) afterTrade(ctx context.Context, userID uuid.UUID, receipt *usecase.TradeReceipt) {
	if receipt.Replayed {
		srv.log(ctx).Info("Replayed idempotent order", slog.String("history_id", receipt.HistoryID.String()))

		return
	}

	srv.cache.InvalidateWallets(ctx, userID)
	srv.log(ctx).Info("Trade applied",
		slog.String("type", string(receipt.Type)),
		slog.String("asset_id", receipt.AssetID.String()),
		slog.Int64("units", receipt.Units),
		slog.String("amount", receipt.Amount.StringFixed(moneyPlaces)),
	)
}

func tradeEntry(typ entity.HistoryType, asset *entity.Asset, input *usecase.TradeInput, ref string, balanceAfter int64) *entity.ActionHistory {
	verb := "Bought"
	if typ == entity.HistorySell {
		verb = "Sold"
	}

	return &entity.ActionHistory{
		AssetID:        &asset.ID,
		Type:           typ,
		Description:    fmt.Sprintf("%s %d units of %s", verb, input.Units, asset.Name),
		Units:          input.Units,
		SettlementRef:  ref,
		IdempotencyKey: input.IdempotencyKey,
		Metadata: map[string]any{
			metaUnitPrice:        asset.UnitPrice.StringFixed(moneyPlaces),
			metaOwnershipBalance: balanceAfter,
		},
	}
}

func tradeReceipt(entry *entity.ActionHistory, asset *entity.Asset, wallet *entity.Wallet, ownershipBalance int64) *usecase.TradeReceipt {
	return &usecase.TradeReceipt{
		HistoryID:        entry.ID,
		Type:             entry.Type,
		AssetID:          asset.ID,
		Units:            entry.Units,
		UnitPrice:        asset.UnitPrice,
		Amount:           entry.Amount.Decimal,
		CashBalance:      wallet.CashBalance,
		OwnershipBalance: ownershipBalance,
		SettlementRef:    entry.SettlementRef,
	}
}
