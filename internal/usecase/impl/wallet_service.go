package impl

import (
	"context"
	"log/slog"
	"slices"

	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/entity"
	"propledger/internal/domain/repository"
	"propledger/internal/domain/service"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type walletService struct {
	walletRepo     repository.WalletRepository
	historyRepo    repository.HistoryRepository
	ownershipRepo  repository.OwnershipRepository
	collateralRepo repository.CollateralRepository
	assetRepo      repository.AssetRepository
	yieldRepo      repository.YieldDistributionRepository
	cache          service.LedgerCache
	logger         *slog.Logger
}

// WalletServiceParams holds dependencies for WalletService, injected by Fx.
type WalletServiceParams struct {
	fx.In

	WalletRepo     repository.WalletRepository
	HistoryRepo    repository.HistoryRepository
	OwnershipRepo  repository.OwnershipRepository
	CollateralRepo repository.CollateralRepository
	AssetRepo      repository.AssetRepository
	YieldRepo      repository.YieldDistributionRepository
	Cache          service.LedgerCache
	Logger         *slog.Logger
}

func NewWalletService(params WalletServiceParams) usecase.WalletUsecase {
	return &walletService{
		walletRepo:     params.WalletRepo,
		historyRepo:    params.HistoryRepo,
		ownershipRepo:  params.OwnershipRepo,
		collateralRepo: params.CollateralRepo,
		assetRepo:      params.AssetRepo,
		yieldRepo:      params.YieldRepo,
		cache:          params.Cache,
		logger:         params.Logger,
	}
}

func (srv *walletService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetWallet serves the cached snapshot when present. Commits drop the snapshot, but a
// read racing a commit can re-store the pre-commit row, so a hit may lag by up to the
// cache TTL. Trades always re-read the wallet under lock.
func (srv *walletService) GetWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	if wallet, ok := srv.cache.GetWallet(ctx, userID); ok {
		return wallet, nil
	}

	wallet, err := srv.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get wallet")
	}

	srv.cache.SetWallet(ctx, wallet)

	return wallet, nil
}

func (srv *walletService) ListHistory(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*entity.ActionHistory, error) {
	entries, err := srv.historyRepo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list history")
	}

	return entries, nil
}

// ListHoldings merges free and locked units per asset, ordered by asset name.
func (srv *walletService) ListHoldings(ctx context.Context, userID uuid.UUID) ([]*usecase.Holding, error) {
	ownerships, err := srv.ownershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ownerships")
	}

	collaterals, err := srv.collateralRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list collateral")
	}

	byAsset := make(map[uuid.UUID]*usecase.Holding)
	holding := func(assetID uuid.UUID) *usecase.Holding {
		h, ok := byAsset[assetID]
		if !ok {
			h = &usecase.Holding{AssetID: assetID}
			byAsset[assetID] = h
		}

		return h
	}

	for _, o := range ownerships {
		if o.Balance > 0 {
			holding(o.AssetID).Units += o.Balance
		}
	}
	for _, c := range collaterals {
		if c.Status == entity.CollateralStatusLocked {
			holding(c.AssetID).LockedUnits += c.LockedUnits
		}
	}

	holdings := make([]*usecase.Holding, 0, len(byAsset))
	for assetID, h := range byAsset {
		asset, err := srv.assetRepo.FindByID(ctx, assetID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load asset %s", assetID)
		}

		h.AssetName = asset.Name
		h.Status = asset.Status
		h.UnitPrice = asset.UnitPrice
		h.MarketValue = asset.PriceOf(h.Units + h.LockedUnits)
		holdings = append(holdings, h)
	}

	slices.SortFunc(holdings, func(a, b *usecase.Holding) int {
		if a.AssetName != b.AssetName {
			if a.AssetName < b.AssetName {
				return -1
			}

			return 1
		}

		return compareIDs(a.AssetID, b.AssetID)
	})

	srv.log(ctx).Debug("Listed holdings", slog.String("user_id", userID.String()), slog.Int("count", len(holdings)))

	return holdings, nil
}

func (srv *walletService) ListCollateral(ctx context.Context, userID uuid.UUID) ([]*entity.Collateral, error) {
	collaterals, err := srv.collateralRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list collateral")
	}

	return collaterals, nil
}

func (srv *walletService) ListYields(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*entity.YieldDistribution, error) {
	yields, err := srv.yieldRepo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list yields")
	}

	return yields, nil
}
