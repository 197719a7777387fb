package service

import (
	"context"
	"time"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// LedgerCache holds read-side snapshots. It is never authoritative: balances are
// always mutated against the ledger store. Snapshots are dropped after commit, yet a
// concurrent read-through may re-store an older row, so hits can lag by up to the TTL.
type LedgerCache interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, bool)
	SetWallet(ctx context.Context, wallet *entity.Wallet)
	InvalidateWallets(ctx context.Context, userIDs ...uuid.UUID)

	// AcquireLock takes an advisory lock. The returned release func is always non-nil.
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (release func(), acquired bool, err error)
}
