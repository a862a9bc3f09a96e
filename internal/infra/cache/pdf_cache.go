// Package cache keeps rendered PDFs in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bin2pdf/internal/infra/logging"
)

const (
	defaultTTL = time.Minute
	opTimeout  = time.Second
)

// PDFCache is a Redis-backed convert.Cache. Redis failures are logged and
// reported as misses.
type PDFCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPDFCache uses a one minute TTL when ttl is not positive.
func NewPDFCache(rdb *redis.Client, ttl time.Duration) *PDFCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PDFCache{rdb: rdb, ttl: ttl}
}

func (c *PDFCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return nil, false
	}
	logging.Info("PDF cache hit", "key", key)
	return data, true
}

func (c *PDFCache) Set(ctx context.Context, key string, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}
