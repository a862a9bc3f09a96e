// Package auth caches API tokens and their rate limits in memory.
package auth

import (
	"context"
	"sync"
	"time"

	"bin2pdf/internal/infra/logging"
)

// TokenLoader fetches the full token table.
type TokenLoader interface {
	LoadTokens(ctx context.Context) (map[string]int, error)
}

// Store is a read-mostly token cache. A nil cache means "not loaded yet".
type Store struct {
	mu     sync.RWMutex
	cache  map[string]int
	loader TokenLoader
}

func NewStore(loader TokenLoader) *Store {
	return &Store{loader: loader}
}

// Load replaces the cache with a fresh copy from the loader. On error the
// previous cache stays in place.
func (s *Store) Load(ctx context.Context) error {
	m, err := s.loader.LoadTokens(ctx)
	if err != nil {
		return err
	}
	s.LoadFromMap(m)
	return nil
}

// LoadFromMap replaces the cache with a copy of m.
func (s *Store) LoadFromMap(m map[string]int) {
	cache := make(map[string]int, len(m))
	for k, v := range m {
		cache[k] = v
	}
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
}

// Ready reports whether the cache has been loaded at least once.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache != nil
}

func (s *Store) Validate(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[token]
	return ok
}

// RateLimit returns the token's limit, or 0 (unlimited) for unknown tokens.
func (s *Store) RateLimit(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[token]
}

// RefreshPeriodically reloads the cache every interval until stop is closed.
func (s *Store) RefreshPeriodically(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Load(context.Background()); err != nil {
				logging.Error("Failed to reload API tokens", "error", err)
			}
		case <-stop:
			return
		}
	}
}
