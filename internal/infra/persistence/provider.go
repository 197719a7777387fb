// Package persistence selects the ledger store driver and exposes its repositories to Fx.
package persistence

import (
	"log/slog"

	"propledger/config"
	"propledger/internal/domain/constants"
	"propledger/internal/domain/repository"
	"propledger/internal/infra/persistence/memory"
	"propledger/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the ledger store, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// Repositories are the non-transactional repositories plus the transaction manager.
// Every multi-row mutation must go through TxManager.
type Repositories struct {
	fx.Out

	TxManager   repository.TransactionManager
	Users       repository.UserRepository
	Assets      repository.AssetRepository
	Wallets     repository.WalletRepository
	History     repository.HistoryRepository
	Ownerships  repository.OwnershipRepository
	Collaterals repository.CollateralRepository
	Incomes     repository.RentalIncomeRepository
	Yields      repository.YieldDistributionRepository
}

// New builds the configured ledger store.
func New(params Params) (Repositories, error) {
	switch params.Config.Storage.Driver {
	case constants.StorageDriverMemory:
		params.Logger.Warn("Using in-memory ledger store; balances are lost on restart")
		store := memory.NewStore()

		return fromFactory(store.TransactionManager(), store.Repositories()), nil

	case constants.StorageDriverPostgres, "":
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lc,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Repositories{}, err
		}

		return fromFactory(postgres.NewTransactionManager(db), postgres.NewRepositoryFactory(db)), nil

	default:
		return Repositories{}, errors.Errorf("unknown storage driver: %s", params.Config.Storage.Driver)
	}
}

func fromFactory(txManager repository.TransactionManager, f repository.RepositoryFactory) Repositories {
	return Repositories{
		TxManager:   txManager,
		Users:       f.UserRepo(),
		Assets:      f.AssetRepo(),
		Wallets:     f.WalletRepo(),
		History:     f.HistoryRepo(),
		Ownerships:  f.OwnershipRepo(),
		Collaterals: f.CollateralRepo(),
		Incomes:     f.RentalIncomeRepo(),
		Yields:      f.YieldRepo(),
	}
}

// Module provides the ledger store FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(New),
)
