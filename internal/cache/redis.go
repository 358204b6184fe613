package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/h1bee-match/internal/config"
)

// LikeCountTTL is how long a cached like counter lives without reads.
const LikeCountTTL = time.Hour

// likeCountVersionTTL must outlive any single recount.
const likeCountVersionTTL = 24 * time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// Publish sends payload on a pub/sub channel and returns the receiver count.
func (c *RedisCache) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	return c.Client.Publish(ctx, channel, payload).Result()
}

// KeyForLikeCount generates Redis key for a user's like count
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return "likes:count:" + userID
}

// KeyForLikeCountVersion is bumped on every invalidation of userID's count.
func (c *RedisCache) KeyForLikeCountVersion(userID string) string {
	return "likes:count:ver:" + userID
}

// LikeCountVersion returns the invalidation version of userID's count.
// Read it before recounting and pass it to UpdateLikeCount.
func (c *RedisCache) LikeCountVersion(ctx context.Context, userID string) (int64, error) {
	v, err := c.Client.Get(ctx, c.KeyForLikeCountVersion(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// UpdateLikeCount stores count with LikeCountTTL, unless the counter was
// invalidated after version was read. stored is false when the write was
// skipped.
//
// The version key is WATCHed, so an invalidation racing the write aborts it.
func (c *RedisCache) UpdateLikeCount(ctx context.Context, userID string, count, version int64) (stored bool, err error) {
	verKey := c.KeyForLikeCountVersion(userID)

	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL)
			return nil
		})
		stored = err == nil
		return err
	}, verKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// GetLikeCount returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry, treat as miss
		_ = c.Client.Del(ctx, key).Err()
		return 0, false, nil
	}

	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// InvalidateLikeCount drops the cached counters of the given users and bumps
// their versions, so a recount that started earlier cannot write back.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			verKey := c.KeyForLikeCountVersion(id)
			pipe.Incr(ctx, verKey)
			pipe.Expire(ctx, verKey, likeCountVersionTTL)
			pipe.Del(ctx, c.KeyForLikeCount(id))
		}
		return nil
	})
	return err
}
