package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bin2pdf/internal/config"
	"bin2pdf/internal/infra/chrome"
)

func TestChromeStats_NoPool(t *testing.T) {
	cfg := config.Default()
	cfg.PDF.ChromePoolSize = 3

	app := fiber.New()
	app.Get("/stats", ChromeStats(cfg, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var s chrome.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.False(t, s.Enabled)
	assert.Equal(t, "fpdf", s.Engine)
	assert.Equal(t, 3, s.PoolSizeConf)
	assert.Equal(t, cfg.PDF.TimeoutSecs, s.TimeoutSecs)
}

func TestChromeStats_WithPool(t *testing.T) {
	cfg := config.Default()
	cfg.PDF.Engine = config.EngineChrome
	cfg.PDF.ChromePoolSize = 2
	cfg.PDF.ChromePath = "/bin/true"
	cfg.PDF.UserDataDir = t.TempDir()

	pool, err := chrome.NewPool(cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	app := fiber.New()
	app.Get("/stats", ChromeStats(cfg, pool))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var s chrome.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.True(t, s.Enabled)
	assert.Equal(t, "chrome", s.Engine)
	assert.Equal(t, 2, s.Capacity)
	assert.Equal(t, 2, s.Idle)
	assert.Equal(t, 0, s.InUse)
}
