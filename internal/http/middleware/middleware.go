// Package middleware attaches the global Fiber middleware chain.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/rs/xid"

	"bin2pdf/internal/auth"
	"bin2pdf/internal/config"
	"bin2pdf/internal/domain"
	"bin2pdf/internal/infra/logging"
)

// ExposedHeaders are readable by cross-origin clients.
var ExposedHeaders = []string{
	fiber.HeaderContentDisposition,
	fiber.HeaderXRequestID,
	"X-Source-Encoding",
	"X-Page-Count",
	"X-Line-Count",
}

// Register attaches recover, CORS, request IDs, health probes, optional API
// key auth, rate limits and request logging. tokens may be nil when auth is
// disabled; store may be nil for in-memory limiter storage.
func Register(app *fiber.App, cfg config.Config, tokens *auth.Store, store fiber.Storage) {
	if store == nil {
		store = memoryStorage.New()
	}

	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		ExposeHeaders: strings.Join(ExposedHeaders, ","),
	}))

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  "/ops/health",
		ReadinessEndpoint: "/ops/ready",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return tokens == nil || tokens.Ready()
		},
	}))

	rlCfg := RateLimitConfig{
		RateInterval:           cfg.RateLimiter.Interval,
		EnableTokenRateLimiter: tokens != nil,
		EnableUserLimiter:      cfg.RateLimiter.EnableUserLimiter,
		UserLimit:              cfg.RateLimiter.UserLimit,
	}

	if tokens != nil {
		app.Use(APIKeyAuth(tokens))
		app.Use(TokenRateLimit(rlCfg, tokens, store, NewLimiterCache()))
	}
	app.Use(UserRateLimit(rlCfg, store))

	app.Use(func(c *fiber.Ctx) error {
		requestID := c.GetRespHeader(fiber.HeaderXRequestID)
		logging.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", requestID)
		return c.Next()
	})
}

// APIKeyAuth validates X-API-Key when present. Requests without the header
// pass through anonymously.
func APIKeyAuth(tokens *auth.Store) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:X-API-Key",
		ContextKey: APIKeyLocal,
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if !tokens.Ready() {
				return false, domain.ErrTokenStoreNotReady
			}
			if !tokens.Validate(key) {
				return false, domain.ErrInvalidAPIKey
			}
			return true, nil
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Get("X-API-Key") == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// keyauth can call ErrorHandler with a nil error.
			status := fiber.StatusUnauthorized
			if err == nil {
				err = fiber.ErrUnauthorized
			}
			if errors.Is(err, domain.ErrTokenStoreNotReady) {
				status = fiber.StatusServiceUnavailable
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		},
	})
}
