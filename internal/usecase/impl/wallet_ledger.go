package impl

import (
	"context"
	"fmt"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// walletLedger is the only code path that moves cash. Each call runs inside the
// caller's transaction and locks the wallet row; the caller must already hold its
// asset, ownership and collateral locks.
type walletLedger struct{}

// walletAdjustment updates the non-cash wallet counters alongside a cash movement.
type walletAdjustment func(w *entity.Wallet)

func addInvested(amount decimal.Decimal) walletAdjustment {
	return func(w *entity.Wallet) {
		w.TotalInvested = w.TotalInvested.Add(amount)
	}
}

// reduceInvested never takes totalInvested below zero.
func reduceInvested(amount decimal.Decimal) walletAdjustment {
	return func(w *entity.Wallet) {
		w.TotalInvested = decimal.Max(w.TotalInvested.Sub(amount), decimal.Zero)
	}
}

func addLockedCollateral(value decimal.Decimal) walletAdjustment {
	return func(w *entity.Wallet) {
		w.LockedCollateralValue = w.LockedCollateralValue.Add(value)
	}
}

func reduceLockedCollateral(value decimal.Decimal) walletAdjustment {
	return func(w *entity.Wallet) {
		w.LockedCollateralValue = decimal.Max(w.LockedCollateralValue.Sub(value), decimal.Zero)
	}
}

// credit adds amount to the user's cash balance and journals entry.
func (l walletLedger) credit(
	ctx context.Context,
	repos repository.RepositoryFactory,
	userID uuid.UUID,
	amount decimal.Decimal,
	entry *entity.ActionHistory,
	adjustments ...walletAdjustment,
) (*entity.Wallet, error) {
	if amount.IsNegative() {
		return nil, errors.Errorf("credit amount must not be negative: %s", amount)
	}

	return l.move(ctx, repos, userID, amount, entry, adjustments)
}

// debit subtracts amount from the user's cash balance and journals entry.
// It fails with ErrInsufficientFunds rather than letting the balance go negative.
func (l walletLedger) debit(
	ctx context.Context,
	repos repository.RepositoryFactory,
	userID uuid.UUID,
	amount decimal.Decimal,
	entry *entity.ActionHistory,
	adjustments ...walletAdjustment,
) (*entity.Wallet, error) {
	if amount.IsNegative() {
		return nil, errors.Errorf("debit amount must not be negative: %s", amount)
	}

	return l.move(ctx, repos, userID, amount.Neg(), entry, adjustments)
}

// reserve locks the user's wallet and fails with ErrInsufficientFunds when it cannot
// cover amount. Callers run it before any external settlement so a rejected order
// never reaches the settlement collaborator; debit still re-checks.
func (walletLedger) reserve(ctx context.Context, repos repository.RepositoryFactory, userID uuid.UUID, amount decimal.Decimal) error {
	wallet, err := repos.WalletRepo().FindByUserIDForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	return coverage(wallet, amount)
}

func coverage(wallet *entity.Wallet, amount decimal.Decimal) error {
	if wallet.CashBalance.LessThan(amount) {
		return domainerrors.ErrInsufficientFunds.WithDetails(
			fmt.Sprintf("need %s, available %s", amount.StringFixed(moneyPlaces), wallet.CashBalance.StringFixed(moneyPlaces)),
		)
	}

	return nil
}

func (l walletLedger) move(
	ctx context.Context,
	repos repository.RepositoryFactory,
	userID uuid.UUID,
	delta decimal.Decimal,
	entry *entity.ActionHistory,
	adjustments []walletAdjustment,
) (*entity.Wallet, error) {
	wallet, err := repos.WalletRepo().FindByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if delta.IsNegative() {
		if err := coverage(wallet, delta.Neg()); err != nil {
			return nil, err
		}
	}

	wallet.CashBalance = wallet.CashBalance.Add(delta)
	for _, adjust := range adjustments {
		adjust(wallet)
	}

	if err := repos.WalletRepo().Update(ctx, wallet); err != nil {
		return nil, err
	}

	entry.Amount = nullDecimal(delta.Abs())
	entry.BalanceAfter = nullDecimal(wallet.CashBalance)
	if err := l.appendHistory(ctx, repos, userID, entry); err != nil {
		return nil, err
	}

	return wallet, nil
}

// appendHistory journals entry for userID. Entries are never edited afterwards.
func (walletLedger) appendHistory(ctx context.Context, repos repository.RepositoryFactory, userID uuid.UUID, entry *entity.ActionHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = newID()
	}
	entry.UserID = userID

	return repos.HistoryRepo().Append(ctx, entry)
}
