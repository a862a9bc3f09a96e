package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bin2pdf/internal/config"
)

func TestEnsureLogDir(t *testing.T) {
	require.NoError(t, ensureLogDir(""), "empty path is a no-op")
	require.NoError(t, ensureLogDir("app.log"), "file in current dir is a no-op")

	dir := filepath.Join(t.TempDir(), "nested", "logs")
	require.NoError(t, ensureLogDir(filepath.Join(dir, "bin2pdf.log")))

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestBuildDeps_Defaults(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)

	deps, cleanup := buildDeps(config.Default(), stop)
	defer cleanup()

	assert.Nil(t, deps.Redis)
	assert.Nil(t, deps.Tokens)
	assert.Nil(t, deps.Pool)
	assert.NotNil(t, deps.LimiterStore)
}

func TestBuildDeps_AuthWithBadDSNIsNotReady(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.Postgres.Host = "db.internal"

	stop := make(chan struct{})
	defer close(stop)

	deps, cleanup := buildDeps(cfg, stop)
	defer cleanup()

	require.NotNil(t, deps.Tokens)
	assert.False(t, deps.Tokens.Ready())
}

func TestStartServer_GracefulShutdownOnSignal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":0"

	idleConnsClosed := make(chan struct{})
	go startServer(app, cfg, idleConnsClosed)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-idleConnsClosed:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for graceful shutdown")
	}
}

func TestMain_UsesConfigAndShutsDown(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	err := os.WriteFile(cfgPath, []byte(`
server:
  host: "127.0.0.1"
  port: ":0"
limits:
  max_upload_bytes: 1048576
  max_pdf_bytes: 1048576
logger:
  file: "`+filepath.Join(t.TempDir(), "logs", "bin2pdf.log")+`"
  level: "info"
  max_size_mb: 1
  max_backups: 1
  max_age_days: 1
pdf:
  engine: "fpdf"
  page_numbers: true
`), 0o644)
	require.NoError(t, err)

	t.Setenv("CONFIG_PATH", cfgPath)

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for main to exit")
	}
}
