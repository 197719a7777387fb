package impl

import (
	"context"
	"testing"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCache counts cache traffic.
type recordingCache struct {
	wallets     map[uuid.UUID]*entity.Wallet
	invalidated []uuid.UUID
	lockedCache
}

func (c *recordingCache) GetWallet(_ context.Context, userID uuid.UUID) (*entity.Wallet, bool) {
	w, ok := c.wallets[userID]

	return w, ok
}

func (c *recordingCache) SetWallet(_ context.Context, wallet *entity.Wallet) {
	c.wallets[wallet.UserID] = wallet
}

func (c *recordingCache) InvalidateWallets(_ context.Context, userIDs ...uuid.UUID) {
	c.invalidated = append(c.invalidated, userIDs...)
	for _, id := range userIDs {
		delete(c.wallets, id)
	}
}

func TestWalletService_GetWallet_Cache(t *testing.T) {
	c := &recordingCache{wallets: map[uuid.UUID]*entity.Wallet{}}
	f := newLedgerFixture(t, withCache(c))
	ctx := context.Background()
	asset := f.activeAsset(t, 10, "10")
	investor := f.investor(t, "100")

	wallet, err := f.wallets.GetWallet(ctx, investor.UserID)
	require.NoError(t, err)
	assert.True(t, money("100").Equal(wallet.CashBalance))
	assert.Contains(t, c.wallets, investor.UserID)

	f.buy(t, investor, asset.ID, 1)
	assert.Contains(t, c.invalidated, investor.UserID)
	assert.NotContains(t, c.wallets, investor.UserID)

	wallet, err = f.wallets.GetWallet(ctx, investor.UserID)
	require.NoError(t, err)
	assert.True(t, money("90").Equal(wallet.CashBalance))
}

func TestWalletService_ListHoldings(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	first := f.activeAsset(t, 100, "10")
	second := f.activeAsset(t, 100, "2.5")
	investor := f.investor(t, "1000")
	f.buy(t, investor, first.ID, 10)
	f.buy(t, investor, second.ID, 20)
	_, err := f.ownership.LockCollateral(ctx, investor, &usecase.CollateralInput{AssetID: first.ID, Units: 4})
	require.NoError(t, err)

	holdings, err := f.wallets.ListHoldings(ctx, investor.UserID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	byAsset := map[uuid.UUID]*usecase.Holding{}
	for _, h := range holdings {
		byAsset[h.AssetID] = h
	}

	h := byAsset[first.ID]
	require.NotNil(t, h)
	assert.Equal(t, int64(6), h.Units)
	assert.Equal(t, int64(4), h.LockedUnits)
	assert.True(t, money("100").Equal(h.MarketValue))
	assert.Equal(t, entity.AssetStatusActive, h.Status)

	h = byAsset[second.ID]
	require.NotNil(t, h)
	assert.Equal(t, int64(20), h.Units)
	assert.Zero(t, h.LockedUnits)
	assert.True(t, money("50").Equal(h.MarketValue))
}

func TestWalletService_ListHistory_NewestFirst(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	asset := f.activeAsset(t, 10, "1")
	investor := f.investor(t, "10")
	f.buy(t, investor, asset.ID, 1)
	_, err := f.ownership.Sell(ctx, investor, &usecase.TradeInput{AssetID: asset.ID, Units: 1})
	require.NoError(t, err)

	history, err := f.wallets.ListHistory(ctx, investor.UserID, repository.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.HistorySell, history[0].Type)
	assert.Equal(t, entity.HistoryBuy, history[1].Type)
	assert.True(t, money("10").Equal(history[0].BalanceAfter.Decimal))
	assert.True(t, money("9").Equal(history[1].BalanceAfter.Decimal))
}

func TestWalletService_StaleSnapshotNeverFundsTrade(t *testing.T) {
	c := &recordingCache{wallets: map[uuid.UUID]*entity.Wallet{}}
	f := newLedgerFixture(t, withCache(c))
	ctx := context.Background()
	asset := f.activeAsset(t, 10, "10")
	investor := f.investor(t, "100")

	stale, err := f.wallets.GetWallet(ctx, investor.UserID)
	require.NoError(t, err)
	f.buy(t, investor, asset.ID, 10)

	// A read that lost the race to the commit re-stores the pre-buy row.
	c.SetWallet(ctx, stale)
	wallet, err := f.wallets.GetWallet(ctx, investor.UserID)
	require.NoError(t, err)
	assert.True(t, money("100").Equal(wallet.CashBalance))

	_, err = f.ownership.Buy(ctx, investor, &usecase.TradeInput{AssetID: asset.ID, Units: 1})
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientFunds)
	assert.True(t, f.cash(t, investor.UserID).IsZero())
}
