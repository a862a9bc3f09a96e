// Package server assembles the Fiber app: error handling, middleware, routes.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"bin2pdf/internal/auth"
	"bin2pdf/internal/config"
	"bin2pdf/internal/convert"
	"bin2pdf/internal/decode"
	"bin2pdf/internal/http/handlers"
	"bin2pdf/internal/http/middleware"
	"bin2pdf/internal/infra/cache"
	"bin2pdf/internal/infra/chrome"
	"bin2pdf/internal/infra/logging"
	"bin2pdf/internal/render"
	"bin2pdf/internal/web"
)

// Deps are the runtime collaborators built by main. Every field except
// Config may be nil.
type Deps struct {
	Config config.Config
	// Redis backs the PDF cache when cache.pdf_cache_enabled is set.
	Redis *redis.Client
	// Tokens enables X-API-Key auth and per-token limits.
	Tokens *auth.Store
	// Pool serves the chrome engine; nil means a browser per request.
	Pool *chrome.Pool
	// LimiterStore holds rate limiter counters; nil means in memory.
	LimiterStore fiber.Storage
}

// New builds the service and mounts it on a fresh app.
func New(d Deps) (*fiber.App, error) {
	cfg := d.Config

	svc, err := newService(d)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               "bin2pdf",
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.Server.BodyLimitBytes,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, cfg, d.Tokens, d.LimiterStore)
	RegisterRoutes(app, cfg, svc, d.Pool)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app, nil
}

// RegisterRoutes mounts the upload client, the conversion endpoint and the
// operational routes.
func RegisterRoutes(app *fiber.App, cfg config.Config, svc handlers.Converter, pool *chrome.Pool) {
	h := handlers.NewConvertHandler(svc, int64(cfg.Limits.MaxUploadBytes))

	app.Get("/", web.Index)
	app.Post("/convert", h.Handle)
	app.Post("/api/convert", h.Handle)

	v1 := app.Group("/v1")
	v1.Get("/chrome/stats", handlers.ChromeStats(cfg, pool))
	v1.Get("/monitor", monitor.New())
}

func newService(d Deps) (*convert.Service, error) {
	cfg := d.Config

	decoder, err := decode.NewDecoder(cfg.Decoder.Encodings...)
	if err != nil {
		return nil, err
	}
	engine, err := render.New(cfg, d.Pool)
	if err != nil {
		return nil, err
	}

	opts := []convert.Option{
		convert.WithMaxPDFBytes(cfg.Limits.MaxPDFBytes),
		convert.WithPageNumbers(cfg.PDF.PageNumbers),
	}
	if cfg.Cache.PDFCacheEnabled && d.Redis != nil {
		opts = append(opts, convert.WithCache(cache.NewPDFCache(d.Redis, cfg.Cache.PDFCacheTTL)))
	}

	logging.Info("Converter ready",
		"engine", engine.Name(),
		"encodings", decoder.Encodings(),
		"pdf_cache", cfg.Cache.PDFCacheEnabled && d.Redis != nil,
	)
	return convert.NewService(decoder, engine, opts...), nil
}

// errorHandler keeps every error body in the flat {"error": "..."} shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		msg = e.Message
	}
	// Bodies above server.body_limit_bytes never reach the handler.
	if code == fiber.StatusRequestEntityTooLarge {
		msg = "File too large"
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg, "error", err)

	return c.Status(code).JSON(fiber.Map{"error": msg})
}
