// Package cache holds the read-side wallet snapshot cache and the advisory run lock.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"propledger/internal/domain/entity"
	"propledger/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	defaultWalletTTL   = 5 * time.Minute
	lockReleaseTimeout = 2 * time.Second
	walletKeyPrefix    = "propledger:wallet:"
	lockKeyPrefix      = "propledger:lock:"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a LedgerCache backed by Redis.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) service.LedgerCache {
	if ttl <= 0 {
		ttl = defaultWalletTTL
	}

	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func walletKey(userID uuid.UUID) string {
	return walletKeyPrefix + userID.String()
}

// GetWallet returns a snapshot; any Redis failure is reported as a miss.
func (c *redisCache) GetWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, bool) {
	raw, err := c.client.Get(ctx, walletKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Wallet cache read failed", slog.Any("error", err))
		}

		return nil, false
	}

	var wallet entity.Wallet
	if err := json.Unmarshal(raw, &wallet); err != nil {
		c.logger.WarnContext(ctx, "Wallet cache entry is corrupt", slog.Any("error", err))

		return nil, false
	}

	return &wallet, true
}

func (c *redisCache) SetWallet(ctx context.Context, wallet *entity.Wallet) {
	data, err := json.Marshal(wallet)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, walletKey(wallet.UserID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Wallet cache write failed", slog.Any("error", err))
	}
}

func (c *redisCache) InvalidateWallets(ctx context.Context, userIDs ...uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, walletKey(id))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "Wallet cache invalidation failed",
			slog.Int("keys", len(keys)),
			slog.Any("error", err),
		)
	}
}

func (c *redisCache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := lockKeyPrefix + name
	token := uuid.NewString()

	acquired, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, errors.Wrapf(err, "failed to acquire lock %s", name)
	}
	if !acquired {
		return func() {}, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, c.client, []string{key}, token).Err(); err != nil {
			c.logger.WarnContext(releaseCtx, "Lock release failed",
				slog.String("lock", name),
				slog.Any("error", err),
			)
		}
	}

	return release, true, nil
}
