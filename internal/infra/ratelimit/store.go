// Package ratelimit picks the fiber.Storage behind the request limiters.
package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"bin2pdf/internal/infra/logging"
)

type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns Redis storage when Addr is set and reachable, and memory
// storage otherwise. It never returns nil.
func NewStore(cfg RedisConfig) (store fiber.Storage) {
	store = memoryStorage.New() // safe default
	if cfg.Addr == "" {
		return store
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
		}
	}()
	store = redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	})
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}
