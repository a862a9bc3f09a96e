package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"bin2pdf/internal/auth"
	"bin2pdf/internal/config"
	"bin2pdf/internal/http/server"
	"bin2pdf/internal/infra/chrome"
	"bin2pdf/internal/infra/logging"
	"bin2pdf/internal/infra/postgres"
	"bin2pdf/internal/infra/ratelimit"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	// Allow common container env var to override chrome_path.
	if cfg.PDF.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.PDF.ChromePath = v
		}
	}

	if err := ensureLogDir(cfg.Logger.File); err != nil {
		fmt.Fprintf(os.Stderr, "log dir: %v\n", err)
	}
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	idleConnsClosed := make(chan struct{})
	deps, cleanup := buildDeps(cfg, idleConnsClosed)
	defer cleanup()

	app, err := server.New(deps)
	if err != nil {
		logging.Error("Failed to build server", "error", err)
		cleanup()
		os.Exit(1)
	}

	startServer(app, cfg, idleConnsClosed)
}

// buildDeps creates the optional collaborators. The returned cleanup releases
// them after the server has stopped.
func buildDeps(cfg config.Config, stop <-chan struct{}) (server.Deps, func()) {
	deps := server.Deps{Config: cfg}
	var closers []func()

	if cfg.Cache.PDFCacheEnabled && cfg.Cache.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.PDFCacheDB,
		})
		deps.Redis = rdb
		closers = append(closers, func() { _ = rdb.Close() })
	}

	deps.LimiterStore = ratelimit.NewStore(ratelimit.RedisConfig{
		Addr: cfg.Cache.RedisHost,
		DB:   cfg.Cache.RateLimitDB,
	})

	if cfg.Auth.Enabled {
		deps.Tokens, closers = setupTokens(cfg, stop, closers)
	}

	if cfg.PDF.Engine == config.EngineChrome && cfg.PDF.ChromePoolSize > 0 {
		pool, err := chrome.NewPool(cfg)
		if err != nil {
			logging.Warn("Chrome pool unavailable, using one browser per request", "error", err)
		} else {
			deps.Pool = pool
			closers = append(closers, pool.Close)
		}
	}

	var once sync.Once
	return deps, func() {
		once.Do(func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		})
	}
}

func setupTokens(cfg config.Config, stop <-chan struct{}, closers []func()) (*auth.Store, []func()) {
	store := auth.NewStore(nil)

	dsn, err := postgres.DSN(cfg.Auth.Postgres)
	if err != nil {
		// Without a DSN the store never becomes ready and keyed requests get 503.
		logging.Error("Invalid token database settings", "error", err)
		return store, closers
	}

	db := postgres.NewDB()
	closers = append(closers, func() { _ = db.Close() })
	store = auth.NewStore(postgres.NewTokenRepository(db, dsn))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Load(ctx); err != nil {
		logging.Error("Failed to load API tokens", "error", err)
	}
	go store.RefreshPeriodically(cfg.Auth.ReloadInterval, stop)

	return store, closers
}

func ensureLogDir(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// startServer starts the Fiber app and blocks until SIGINT or SIGTERM has
// shut it down.
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
