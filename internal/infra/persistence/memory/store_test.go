package memory

import (
	"context"
	"sync"
	"testing"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *Store, role entity.Role) uuid.UUID {
	t.Helper()

	id := uuid.New()
	err := store.Execute(context.Background(), func(f repository.RepositoryFactory) error {
		if err := f.UserRepo().Create(context.Background(), &entity.User{ID: id, Email: id.String() + "@example.com", Role: role}); err != nil {
			return err
		}

		return f.WalletRepo().Create(context.Background(), &entity.Wallet{UserID: id, CashBalance: decimal.NewFromInt(100)})
	})
	require.NoError(t, err)

	return id
}

func TestExecuteRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := seedUser(t, store, entity.RoleInvestor)

	boom := errors.New("boom")
	err := store.Execute(ctx, func(f repository.RepositoryFactory) error {
		wallet, err := f.WalletRepo().FindByUserIDForUpdate(ctx, userID)
		require.NoError(t, err)
		wallet.CashBalance = decimal.NewFromInt(1)
		require.NoError(t, f.WalletRepo().Update(ctx, wallet))

		require.NoError(t, f.HistoryRepo().Append(ctx, &entity.ActionHistory{
			ID: uuid.New(), UserID: userID, Type: entity.HistoryBuy, IdempotencyKey: "k1",
		}))

		return boom
	})
	require.ErrorIs(t, err, boom)

	wallet, err := store.Repositories().WalletRepo().FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.CashBalance.Equal(decimal.NewFromInt(100)))

	entry, err := store.Repositories().HistoryRepo().FindByIdempotencyKey(ctx, userID, "k1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestExecuteRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := seedUser(t, store, entity.RoleInvestor)

	assert.Panics(t, func() {
		_ = store.Execute(ctx, func(f repository.RepositoryFactory) error {
			wallet, _ := f.WalletRepo().FindByUserIDForUpdate(ctx, userID)
			wallet.CashBalance = decimal.Zero
			_ = f.WalletRepo().Update(ctx, wallet)
			panic("boom")
		})
	})

	wallet, err := store.Repositories().WalletRepo().FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.CashBalance.Equal(decimal.NewFromInt(100)))

	// The store stays usable after a panicking transaction.
	require.NoError(t, store.Execute(ctx, func(repository.RepositoryFactory) error { return nil }))
}

func TestReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := seedUser(t, store, entity.RoleInvestor)

	wallet, err := store.Repositories().WalletRepo().FindByUserID(ctx, userID)
	require.NoError(t, err)
	wallet.CashBalance = decimal.Zero

	again, err := store.Repositories().WalletRepo().FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, again.CashBalance.Equal(decimal.NewFromInt(100)))
}

func TestSerializedTransactionsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := seedUser(t, store, entity.RoleInvestor)

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			err := store.Execute(ctx, func(f repository.RepositoryFactory) error {
				wallet, err := f.WalletRepo().FindByUserIDForUpdate(ctx, userID)
				if err != nil {
					return err
				}
				wallet.CashBalance = wallet.CashBalance.Add(decimal.NewFromInt(1))

				return f.WalletRepo().Update(ctx, wallet)
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	wallet, err := store.Repositories().WalletRepo().FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.CashBalance.Equal(decimal.NewFromInt(150)))
}

func TestConstraints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := seedUser(t, store, entity.RoleInvestor)
	repos := store.Repositories()

	t.Run("negative cash balance", func(t *testing.T) {
		err := repos.WalletRepo().Update(ctx, &entity.Wallet{UserID: userID, CashBalance: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, domainerrors.ErrInsufficientFunds)
	})

	t.Run("idempotency key reused", func(t *testing.T) {
		entry := &entity.ActionHistory{ID: uuid.New(), UserID: userID, Type: entity.HistorySell, IdempotencyKey: "same"}
		require.NoError(t, repos.HistoryRepo().Append(ctx, entry))

		dup := &entity.ActionHistory{ID: uuid.New(), UserID: userID, Type: entity.HistorySell, IdempotencyKey: "same"}
		assert.ErrorIs(t, repos.HistoryRepo().Append(ctx, dup), domainerrors.ErrIdempotencyConflict)

		other := seedUser(t, store, entity.RoleInvestor)
		assert.NoError(t, repos.HistoryRepo().Append(ctx, &entity.ActionHistory{
			ID: uuid.New(), UserID: other, Type: entity.HistorySell, IdempotencyKey: "same",
		}))
	})

	t.Run("duplicate yield distribution", func(t *testing.T) {
		incomeID := uuid.New()
		first := &entity.YieldDistribution{ID: uuid.New(), RentalIncomeID: incomeID, UserID: userID, Amount: decimal.NewFromInt(1)}
		require.NoError(t, repos.YieldRepo().Create(ctx, first))

		exists, err := repos.YieldRepo().Exists(ctx, incomeID, userID)
		require.NoError(t, err)
		assert.True(t, exists)

		dup := &entity.YieldDistribution{ID: uuid.New(), RentalIncomeID: incomeID, UserID: userID, Amount: decimal.NewFromInt(1)}
		assert.ErrorIs(t, repos.YieldRepo().Create(ctx, dup), domainerrors.ErrDistributionAlreadyApplied)
	})

	t.Run("duplicate income period", func(t *testing.T) {
		assetID := uuid.New()
		income := &entity.RentalIncome{ID: uuid.New(), AssetID: assetID, Period: "2026-01", Status: entity.IncomeStatusPending}
		require.NoError(t, repos.RentalIncomeRepo().Create(ctx, income))

		dup := &entity.RentalIncome{ID: uuid.New(), AssetID: assetID, Period: "2026-01", Status: entity.IncomeStatusPending}
		assert.ErrorIs(t, repos.RentalIncomeRepo().Create(ctx, dup), domainerrors.ErrIncomeAlreadyRecorded)
	})

	t.Run("duplicate email", func(t *testing.T) {
		user, err := repos.UserRepo().FindByID(ctx, userID)
		require.NoError(t, err)

		err = repos.UserRepo().Create(ctx, &entity.User{ID: uuid.New(), Email: user.Email, Role: entity.RoleInvestor})
		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	})
}

func TestHoldersExcludeZeroBalancesAndAreOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()
	assetID := uuid.New()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		require.NoError(t, repos.OwnershipRepo().Save(ctx, &entity.Ownership{UserID: id, AssetID: assetID, Balance: int64(i)}))
	}

	holders, err := repos.OwnershipRepo().ListHoldersByAsset(ctx, assetID)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Negative(t, compareUUID(holders[0].UserID, holders[1].UserID))

	missing, err := repos.OwnershipRepo().Find(ctx, uuid.New(), assetID)
	require.NoError(t, err)
	assert.Zero(t, missing.Balance)
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()
	repos := store.Repositories()

	for _, typ := range []entity.HistoryType{entity.HistoryWalletOpened, entity.HistoryBuy, entity.HistorySell} {
		require.NoError(t, repos.HistoryRepo().Append(ctx, &entity.ActionHistory{ID: uuid.New(), UserID: userID, Type: typ}))
	}

	entries, err := repos.HistoryRepo().ListByUser(ctx, userID, repository.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.HistorySell, entries[0].Type)
	assert.Equal(t, entity.HistoryBuy, entries[1].Type)

	rest, err := repos.HistoryRepo().ListByUser(ctx, userID, repository.Pagination{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, entity.HistoryWalletOpened, rest[0].Type)
}

func TestExecuteHonorsCanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Execute(ctx, func(repository.RepositoryFactory) error {
		called = true

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
