package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"propmarket-go/config"
	"propmarket-go/models"
)

const searchKeyPrefix = "properties:search:"

// PropertyCache caches public search result pages.
type PropertyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPropertyCache(ctx context.Context, cfg config.RedisConfig) (*PropertyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &PropertyCache{client: client, ttl: cfg.TTL}, nil
}

// GetSearch returns the cached page for filter. ok is false on a miss.
func (c *PropertyCache) GetSearch(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, bool, error) {
	data, err := c.client.Get(ctx, SearchKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var page models.PropertyPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *PropertyCache) SetSearch(ctx context.Context, filter models.PropertyFilter, page *models.PropertyPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SearchKey(filter), data, c.ttl).Err()
}

// InvalidateSearch drops every cached search page.
func (c *PropertyCache) InvalidateSearch(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, searchKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *PropertyCache) Close() error {
	return c.client.Close()
}

// SearchKey derives a stable key from the normalized filter.
func SearchKey(filter models.PropertyFilter) string {
	data, _ := json.Marshal(filter)
	sum := sha256.Sum256(data)
	return searchKeyPrefix + hex.EncodeToString(sum[:])
}
