package memory

import (
	"context"
	"maps"
	"slices"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
)

type walletRepository struct {
	v view
}

func (repo *walletRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	var found *entity.Wallet
	err := repo.v.read(func(st *state) error {
		wallet, ok := st.wallets[userID]
		if !ok {
			return domainerrors.ErrWalletNotFound
		}
		found = &wallet

		return nil
	})

	return found, err
}

func (repo *walletRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return repo.FindByUserID(ctx, userID)
}

func (repo *walletRepository) Create(_ context.Context, wallet *entity.Wallet) error {
	return repo.v.write(func(st *state) error {
		if _, ok := st.wallets[wallet.UserID]; ok {
			return domainerrors.ErrConflict.WrapMessage("wallet already exists")
		}
		if wallet.CashBalance.IsNegative() {
			return domainerrors.ErrInsufficientFunds
		}

		now := repo.v.now()
		wallet.CreatedAt = now
		wallet.UpdatedAt = now
		st.wallets[wallet.UserID] = *wallet

		return nil
	})
}

func (repo *walletRepository) Update(_ context.Context, wallet *entity.Wallet) error {
	return repo.v.write(func(st *state) error {
		existing, ok := st.wallets[wallet.UserID]
		if !ok {
			return domainerrors.ErrWalletNotFound
		}
		if wallet.CashBalance.IsNegative() {
			return domainerrors.ErrInsufficientFunds
		}

		wallet.CreatedAt = existing.CreatedAt
		wallet.UpdatedAt = repo.v.now()
		st.wallets[wallet.UserID] = *wallet

		return nil
	})
}

type historyRepository struct {
	v view
}

func (repo *historyRepository) Append(_ context.Context, entry *entity.ActionHistory) error {
	return repo.v.write(func(st *state) error {
		if entry.IdempotencyKey != "" {
			for _, existing := range st.history {
				if existing.UserID == entry.UserID && existing.IdempotencyKey == entry.IdempotencyKey {
					return domainerrors.ErrIdempotencyConflict.WrapMessage("idempotency key already used")
				}
			}
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = repo.v.now()
		}
		st.history = append(st.history, copyHistory(entry))

		return nil
	})
}

func (repo *historyRepository) ListByUser(_ context.Context, userID uuid.UUID, p repository.Pagination) ([]*entity.ActionHistory, error) {
	var entries []*entity.ActionHistory
	err := repo.v.read(func(st *state) error {
		// Appended in commit order, so walking backwards yields newest first.
		for i := len(st.history) - 1; i >= 0; i-- {
			if st.history[i].UserID == userID {
				entries = append(entries, copyHistory(st.history[i]))
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return page(entries, p), nil
}

func (repo *historyRepository) FindByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*entity.ActionHistory, error) {
	if key == "" {
		return nil, nil
	}

	var found *entity.ActionHistory
	err := repo.v.read(func(st *state) error {
		idx := slices.IndexFunc(st.history, func(e *entity.ActionHistory) bool {
			return e.UserID == userID && e.IdempotencyKey == key
		})
		if idx >= 0 {
			found = copyHistory(st.history[idx])
		}

		return nil
	})

	return found, err
}

func copyHistory(entry *entity.ActionHistory) *entity.ActionHistory {
	cp := *entry
	cp.Metadata = maps.Clone(entry.Metadata)
	if entry.AssetID != nil {
		assetID := *entry.AssetID
		cp.AssetID = &assetID
	}

	return &cp
}
