package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auctionbook/internal/logger"
	"auctionbook/internal/models"
)

const keyNamespace = "auctionbook"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore keeps the snapshot under one redis key with no TTL, so several
// CLI hosts can share it.
type RedisStore struct {
	store cmdable
	raw   *redis.Client
}

// NewRedisStore connects to the redis at url and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("offline: parse redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("offline: ping redis: %w", err)
	}
	return &RedisStore{store: raw, raw: raw}, nil
}

// Key returns the namespaced redis key of the snapshot.
func (s *RedisStore) Key() string {
	return keyNamespace + ":" + CacheKey
}

func (s *RedisStore) Save(ctx context.Context, auctions []models.Auction) error {
	data, err := encode(auctions)
	if err != nil {
		return fmt.Errorf("offline: encode snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.Key(), string(data), 0).Err(); err != nil {
		return fmt.Errorf("offline: save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) ([]models.Auction, bool, error) {
	raw, err := s.store.Get(ctx, s.Key()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("offline: load snapshot: %w", err)
	}

	auctions, ok := decode([]byte(raw))
	if !ok {
		logger.Warn("ignoring unreadable auction cache", map[string]any{"key": s.Key()})
		return nil, false, nil
	}
	return auctions, true, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.store.Del(ctx, s.Key()).Err(); err != nil {
		return fmt.Errorf("offline: clear snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
