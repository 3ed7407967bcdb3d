// Package offline keeps the last successfully fetched auction list so that
// clients can keep reading while the API is unreachable.
package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"auctionbook/internal/config"
	"auctionbook/internal/models"
)

// CacheKey names the single snapshot slot.
const CacheKey = "cached_auctions"

// Store holds one auction list snapshot. Save overwrites the previous
// snapshot; there is no expiry.
type Store interface {
	Save(ctx context.Context, auctions []models.Auction) error
	// Load returns the snapshot and true, or false when nothing usable is
	// stored. An unparseable snapshot counts as absent.
	Load(ctx context.Context) ([]models.Auction, bool, error)
	Clear(ctx context.Context) error
}

func encode(auctions []models.Auction) ([]byte, error) {
	if auctions == nil {
		auctions = []models.Auction{}
	}
	return json.Marshal(auctions)
}

func decode(data []byte) ([]models.Auction, bool) {
	var auctions []models.Auction
	if err := json.Unmarshal(data, &auctions); err != nil || auctions == nil {
		return nil, false
	}
	return auctions, true
}

// Open builds the store selected by cfg.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		rs, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case config.CacheFile, "":
		return NewFileStore(cfg.Path), nil
	default:
		return nil, fmt.Errorf("offline: unknown cache backend %q", cfg.Backend)
	}
}
