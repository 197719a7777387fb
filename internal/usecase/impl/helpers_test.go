package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"propledger/config"
	"propledger/internal/domain/entity"
	"propledger/internal/domain/repository"
	"propledger/internal/domain/service"
	"propledger/internal/infra/cache"
	"propledger/internal/infra/persistence/memory"
	"propledger/internal/infra/settlement"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Ledger.SeedBalance = decimal.Zero
	cfg.Ledger.CollateralCreditRatio = decimal.Zero
	cfg.Distribution.Workers = 4
	cfg.Distribution.ResidualPolicy = string(residualPlatform)
	cfg.Distribution.LockTTL = time.Minute

	return cfg
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// mockPublisher records published events.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishDistributionEvent(ctx context.Context, event *service.DistributionEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

// mockSettlement delegates to a real settlement unless told to fail.
type mockSettlement struct {
	mock.Mock
}

func (m *mockSettlement) Settle(ctx context.Context, req *service.SettlementRequest) (string, error) {
	args := m.Called(ctx, req)

	return args.String(0), args.Error(1)
}

// ledgerStore is the committed store a fixture runs against.
type ledgerStore interface {
	TransactionManager() repository.TransactionManager
	Repositories() repository.RepositoryFactory
}

type ledgerFixture struct {
	store      ledgerStore
	cfg        *config.Config
	settlement service.Settlement
	publisher  *mockPublisher
	cache      service.LedgerCache

	users     usecase.UserUsecase
	assets    usecase.AssetUsecase
	ownership usecase.OwnershipUsecase
	wallets   usecase.WalletUsecase
	yields    usecase.YieldUsecase

	admin usecase.Actor
}

type fixtureOption func(f *ledgerFixture)

func withConfig(mutate func(cfg *config.Config)) fixtureOption {
	return func(f *ledgerFixture) {
		mutate(f.cfg)
	}
}

func withSettlement(s service.Settlement) fixtureOption {
	return func(f *ledgerFixture) {
		f.settlement = s
	}
}

func withStore(s ledgerStore) fixtureOption {
	return func(f *ledgerFixture) {
		f.store = s
	}
}

func withCache(c service.LedgerCache) fixtureOption {
	return func(f *ledgerFixture) {
		f.cache = c
	}
}

func newLedgerFixture(t *testing.T, opts ...fixtureOption) *ledgerFixture {
	t.Helper()

	logger := newDiscardLogger()
	publisher := &mockPublisher{}
	publisher.On("PublishDistributionEvent", mock.Anything, mock.Anything).Return(nil).Maybe()

	f := &ledgerFixture{
		store:      memory.NewStore(),
		cfg:        newTestConfig(),
		settlement: settlement.NewMockSettlement(logger),
		publisher:  publisher,
		cache:      cache.NewNoopCache(),
		admin:      usecase.Actor{UserID: uuid.New(), Role: entity.RoleAdmin},
	}
	for _, opt := range opts {
		opt(f)
	}

	txManager := f.store.TransactionManager()
	repos := f.store.Repositories()

	f.users = NewUserService(UserServiceParams{
		TxManager: txManager,
		UserRepo:  repos.UserRepo(),
		Config:    f.cfg,
		Logger:    logger,
	})
	f.assets = NewAssetService(AssetServiceParams{
		TxManager:  txManager,
		AssetRepo:  repos.AssetRepo(),
		Settlement: f.settlement,
		Logger:     logger,
	})
	f.ownership = NewOwnershipService(OwnershipServiceParams{
		TxManager:  txManager,
		Settlement: f.settlement,
		Cache:      f.cache,
		Config:     f.cfg,
		Logger:     logger,
	})
	f.wallets = NewWalletService(WalletServiceParams{
		WalletRepo:     repos.WalletRepo(),
		HistoryRepo:    repos.HistoryRepo(),
		OwnershipRepo:  repos.OwnershipRepo(),
		CollateralRepo: repos.CollateralRepo(),
		AssetRepo:      repos.AssetRepo(),
		YieldRepo:      repos.YieldRepo(),
		Cache:          f.cache,
		Logger:         logger,
	})

	yields, err := NewYieldService(YieldServiceParams{
		TxManager:  txManager,
		IncomeRepo: repos.RentalIncomeRepo(),
		Settlement: f.settlement,
		Publisher:  publisher,
		Cache:      f.cache,
		Config:     f.cfg,
		Logger:     logger,
	})
	require.NoError(t, err)
	f.yields = yields

	return f
}

func (f *ledgerFixture) register(t *testing.T, role entity.Role) usecase.Actor {
	t.Helper()

	actor := usecase.Actor{UserID: uuid.New(), Role: role}
	_, err := f.users.RegisterUser(context.Background(), actor, &usecase.RegisterUserInput{
		Name:  string(role) + " " + actor.UserID.String()[:8],
		Email: actor.UserID.String() + "@example.com",
	})
	require.NoError(t, err)

	return actor
}

// investor registers an investor holding cash.
func (f *ledgerFixture) investor(t *testing.T, cash string) usecase.Actor {
	t.Helper()

	actor := f.register(t, entity.RoleInvestor)
	f.setCash(t, actor.UserID, money(cash))

	return actor
}

func (f *ledgerFixture) setCash(t *testing.T, userID uuid.UUID, cash decimal.Decimal) {
	t.Helper()

	ctx := context.Background()
	repos := f.store.Repositories()
	wallet, err := repos.WalletRepo().FindByUserID(ctx, userID)
	require.NoError(t, err)
	wallet.CashBalance = cash
	require.NoError(t, repos.WalletRepo().Update(ctx, wallet))
}

func (f *ledgerFixture) cash(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	wallet, err := f.store.Repositories().WalletRepo().FindByUserID(context.Background(), userID)
	require.NoError(t, err)

	return wallet.CashBalance
}

func (f *ledgerFixture) units(t *testing.T, userID, assetID uuid.UUID) int64 {
	t.Helper()

	ownership, err := f.store.Repositories().OwnershipRepo().Find(context.Background(), userID, assetID)
	require.NoError(t, err)

	return ownership.Balance
}

// activeAsset lists, verifies and tokenizes an asset for a fresh builder.
func (f *ledgerFixture) activeAsset(t *testing.T, totalUnits int64, unitPrice string) *entity.Asset {
	t.Helper()

	ctx := context.Background()
	builder := f.register(t, entity.RoleBuilder)

	asset, err := f.assets.CreateAsset(ctx, builder, &usecase.CreateAssetInput{
		Name:      "Harbor View " + builder.UserID.String()[:4],
		Location:  "Lisbon",
		Valuation: money("1000000"),
	})
	require.NoError(t, err)

	_, err = f.assets.SubmitForAudit(ctx, builder, asset.ID)
	require.NoError(t, err)
	_, err = f.assets.Verify(ctx, f.admin, asset.ID, "")
	require.NoError(t, err)
	asset, err = f.assets.Tokenize(ctx, builder, asset.ID, &usecase.TokenizeInput{
		TotalUnits: totalUnits,
		UnitPrice:  money(unitPrice),
	})
	require.NoError(t, err)
	require.Equal(t, entity.AssetStatusActive, asset.Status)

	return asset
}

func (f *ledgerFixture) buy(t *testing.T, actor usecase.Actor, assetID uuid.UUID, units int64) *usecase.TradeReceipt {
	t.Helper()

	receipt, err := f.ownership.Buy(context.Background(), actor, &usecase.TradeInput{AssetID: assetID, Units: units})
	require.NoError(t, err)

	return receipt
}

func (f *ledgerFixture) recordIncome(t *testing.T, assetID uuid.UUID, amount, period string) *entity.RentalIncome {
	t.Helper()

	income, err := f.yields.RecordIncome(context.Background(), f.admin, &usecase.RecordIncomeInput{
		AssetID: assetID,
		Amount:  money(amount),
		Period:  period,
	})
	require.NoError(t, err)

	return income
}

func (f *ledgerFixture) requireBalanced(t *testing.T, assetID uuid.UUID) {
	t.Helper()

	rec, err := f.assets.Reconcile(context.Background(), f.admin, assetID)
	require.NoError(t, err)
	require.True(t, rec.Balanced, "units not conserved: %+v", rec)
}
