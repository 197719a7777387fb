package cache

import (
	"context"
	"time"

	"propledger/internal/domain/entity"
	"propledger/internal/domain/service"

	"github.com/google/uuid"
)

// noopCache never stores anything and grants every lock.
// Concurrent distribution runs stay correct through the yield distribution rows.
type noopCache struct{}

// NewNoopCache creates a LedgerCache that caches nothing.
func NewNoopCache() service.LedgerCache {
	return noopCache{}
}

func (noopCache) GetWallet(context.Context, uuid.UUID) (*entity.Wallet, bool) { return nil, false }
func (noopCache) SetWallet(context.Context, *entity.Wallet)                   {}
func (noopCache) InvalidateWallets(context.Context, ...uuid.UUID)             {}

func (noopCache) AcquireLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
