// Package handlers holds the Fiber handlers behind the public routes.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bin2pdf/internal/config"
	"bin2pdf/internal/infra/chrome"
)

// ChromeStats exposes the Chrome pool state. A nil pool reports a disabled
// pool, which is the normal case for the fpdf engine.
func ChromeStats(cfg config.Config, pool *chrome.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pool == nil {
			return c.JSON(chrome.Stats{
				Engine:       cfg.PDF.Engine,
				PoolSizeConf: cfg.PDF.ChromePoolSize,
				TimeoutSecs:  cfg.PDF.TimeoutSecs,
			})
		}
		s := pool.Stats(cfg.PDF.TimeoutSecs)
		s.Engine = cfg.PDF.Engine
		return c.JSON(s)
	}
}
