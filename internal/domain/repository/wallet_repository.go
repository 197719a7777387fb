package repository

import (
	"context"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// WalletRepository persists wallets.
type WalletRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)

	// FindByUserIDForUpdate locks the wallet row until the surrounding transaction ends.
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)

	Create(ctx context.Context, wallet *entity.Wallet) error
	Update(ctx context.Context, wallet *entity.Wallet) error
}

// HistoryRepository is the append-only ledger journal. There is no update or delete.
type HistoryRepository interface {
	Append(ctx context.Context, entry *entity.ActionHistory) error

	// ListByUser returns entries newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, page Pagination) ([]*entity.ActionHistory, error)

	// FindByIdempotencyKey returns nil without error when the key is unused.
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*entity.ActionHistory, error)
}
